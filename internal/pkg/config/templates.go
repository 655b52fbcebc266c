package config

import (
	"image"
	"path/filepath"

	"github.com/joumichy/botorange/internal/domain"
)

// Catalog - каталог эталонных изображений противоположного UI,
// ключами служат логические имена. Отсутствующий файл ассета превращает
// детектор в постоянно несовпадающий, а не в ошибку.
type Catalog struct {
	assetsDir  string
	confidence float64
	scales     []float64
}

// NewCatalog создаёт каталог шаблонов над каталогом ассетов.
func NewCatalog(cfg *Config) *Catalog {
	return &Catalog{
		assetsDir:  cfg.Files.AssetsDir,
		confidence: cfg.Vision.Confidence,
		scales:     cfg.Vision.Scales,
	}
}

func (c *Catalog) asset(name string) string {
	return filepath.Join(c.assetsDir, name)
}

func (c *Catalog) template(name string) domain.Template {
	return domain.Template{
		Name:       name,
		Path:       c.asset(name),
		Confidence: c.confidence,
		Scales:     c.scales,
	}
}

// InterlocutorButtons возвращает пять известных визуальных вариантов
// логической кнопки «Interlocuteur».
func (c *Catalog) InterlocutorButtons() []domain.Template {
	names := []string{
		"interlocutor.png",
		"interlocutor-2.png",
		"interlocutor-3.png",
		"interlocuteur-4.png",
		"interlocuteur-5.png",
	}
	tmpls := make([]domain.Template, 0, len(names))
	for _, name := range names {
		t := c.template(name)
		t.Confidence = 0.8
		tmpls = append(tmpls, t)
	}
	return tmpls
}

// NoResult возвращает шаблон сообщения «0 résultat».
func (c *Catalog) NoResult() domain.Template {
	t := c.template("no-result.png")
	t.Confidence = 0.8
	return t
}

// ListInterlocutors возвращает маркер загрузки страницы «Interlocuteur».
func (c *Catalog) ListInterlocutors() domain.Template {
	return c.template("list-interlocutors.png")
}

// ResultMarkers возвращает маркеры появления результата сниппета.
func (c *Catalog) ResultMarkers() []domain.Template {
	return []domain.Template{
		c.template("result-cancel-ok.png"),
		c.template("result-cancel.png"),
		c.template("result-ok.png"),
	}
}

// SearchFieldCandidates возвращает неупорядоченные кандидаты поля поиска.
// Шаблоны захватывают иконку лупы рядом с полем, отсюда смещения клика.
func (c *Catalog) SearchFieldCandidates() []domain.Template {
	candidates := []struct {
		name       string
		offsetX    int
		confidence float64
		scales     []float64
	}{
		{"search_loop.png", -75, 0.78, []float64{1.0, 0.96, 1.04}},
		{"search_loop.png", -95, 0.80, []float64{1.0, 0.97, 1.03}},
		{"loop-2.png", -90, 0.82, nil},
		{"loop.png", -85, 0.82, nil},
	}
	tmpls := make([]domain.Template, 0, len(candidates))
	for _, cand := range candidates {
		t := c.template(cand.name)
		t.Confidence = cand.confidence
		t.ClickOffset = image.Pt(cand.offsetX, 0)
		if cand.scales != nil {
			t.Scales = cand.scales
		}
		tmpls = append(tmpls, t)
	}
	return tmpls
}

// Header возвращает шаблон шапки страницы для калибровки области поиска.
func (c *Catalog) Header() domain.Template {
	t := c.template("page_top.png")
	t.Confidence = 0.7
	return t
}

// HeaderPadding - отступы области сканирования вокруг найденной шапки:
// слева, сверху, справа, снизу.
func (c *Catalog) HeaderPadding() (int, int, int, int) {
	return 0, 0, 0, 120
}
