package vision

import (
	"image"
	"log/slog"

	"github.com/joumichy/botorange/internal/domain"
	"github.com/joumichy/botorange/internal/ports"
)

// matchResult - лучшая позиция одного движка сопоставления.
type matchResult struct {
	Found bool
	Score float64
	Rect  image.Rectangle
}

// engine - движок сопоставления шаблона с кадром в оттенках серого.
// Движок сам обходит кандидатные масштабы и возвращает глобально лучший
// результат не ниже порога.
type engine interface {
	Match(frame, tmpl *image.Gray, scales []float64, confidence float64) (matchResult, error)
}

// Matcher реализует ports.TemplateMatcher: многомасштабная нормированная
// кросс-корреляция по свежему снимку экрана, со структурным запасным
// движком на случай ошибки основного.
type Matcher struct {
	capturer ports.ScreenCapturer
	cache    *templateCache
	primary  engine
	fallback engine
	logger   *slog.Logger
}

// NewMatcher создаёт сопоставитель с основным движком OpenCV.
func NewMatcher(capturer ports.ScreenCapturer, logger *slog.Logger) *Matcher {
	return &Matcher{
		capturer: capturer,
		cache:    newTemplateCache(),
		primary:  &OpenCVEngine{},
		fallback: &FallbackEngine{},
		logger:   logger,
	}
}

// NewMatcherWithEngine создаёт сопоставитель с явно заданным основным
// движком (запасной вариант как основной, либо движок для тестов).
func NewMatcherWithEngine(capturer ports.ScreenCapturer, primary engine, logger *slog.Logger) *Matcher {
	return &Matcher{
		capturer: capturer,
		cache:    newTemplateCache(),
		primary:  primary,
		fallback: &FallbackEngine{},
		logger:   logger,
	}
}

// Locate ищет один шаблон и возвращает лучшую рамку не ниже порога.
// Каждый вызов делает реальный снимок экрана.
func (m *Matcher) Locate(tmpl domain.Template) domain.DetectionResult {
	res := m.locate(tmpl)
	res.VariantIndex = -1
	return res
}

// LocateAny проверяет упорядоченный список шаблонов и возвращает первый
// найденный вместе с его порядковым номером.
func (m *Matcher) LocateAny(tmpls []domain.Template) domain.DetectionResult {
	for idx, tmpl := range tmpls {
		if res := m.locate(tmpl); res.Found {
			res.VariantIndex = idx
			return res
		}
	}
	return domain.DetectionResult{Found: false, VariantIndex: -1}
}

func (m *Matcher) locate(tmpl domain.Template) domain.DetectionResult {
	gray := m.cache.Get(tmpl.Path)
	if gray == nil {
		// Отсутствующий ассет: детектор постоянно не совпадает, это не ошибка
		return domain.DetectionResult{Found: false}
	}

	capture, err := m.capturer.Capture(tmpl.Region)
	if err != nil {
		m.logger.Warn("снимок экрана не удался", slog.String("template", tmpl.Name), slog.String("error", err.Error()))
		return domain.DetectionResult{Found: false}
	}
	frame := toGray(capture)

	scales := tmpl.Scales
	if len(scales) == 0 {
		scales = []float64{1.0}
	}

	best, err := m.primary.Match(frame, gray, scales, tmpl.Confidence)
	if err != nil {
		// Ошибка основного движка - не фатальна: пробуем запасной
		m.logger.Warn("основной движок сопоставления отказал, переключение на запасной",
			slog.String("template", tmpl.Name), slog.String("error", err.Error()))
		best, err = m.fallback.Match(frame, gray, scales, tmpl.Confidence)
		if err != nil {
			m.logger.Warn("запасной движок сопоставления отказал", slog.String("template", tmpl.Name), slog.String("error", err.Error()))
			return domain.DetectionResult{Found: false}
		}
	}

	if !best.Found {
		return domain.DetectionResult{Found: false}
	}

	box := domain.Box{
		X:      best.Rect.Min.X,
		Y:      best.Rect.Min.Y,
		Width:  best.Rect.Dx(),
		Height: best.Rect.Dy(),
	}
	// Перевод координат подобласти обратно в экранные
	if !tmpl.Region.Empty() {
		box.X += tmpl.Region.Min.X
		box.Y += tmpl.Region.Min.Y
	}
	return domain.DetectionResult{Found: true, Box: box, Score: best.Score}
}
