package services

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/joumichy/botorange/internal/pkg/config"
	"github.com/joumichy/botorange/internal/ports"
)

// UIActions объединяет элементарные действия над противоположным UI:
// калибровку области, фокус поля поиска, ввод номера, отправку запроса
// и закрытие вторичного окна.
type UIActions struct {
	matcher     ports.TemplateMatcher
	driver      ports.InputDriver
	clipboard   ports.Clipboard
	catalog     *config.Catalog
	calibration *Calibration
	fallback    image.Point
	logger      *slog.Logger
}

// NewUIActions создаёт сервис действий над UI. Нулевая точка fallback
// отключает запасные координаты поля поиска.
func NewUIActions(
	matcher ports.TemplateMatcher,
	driver ports.InputDriver,
	clipboard ports.Clipboard,
	catalog *config.Catalog,
	calibration *Calibration,
	fallback image.Point,
	logger *slog.Logger,
) *UIActions {
	return &UIActions{
		matcher:     matcher,
		driver:      driver,
		clipboard:   clipboard,
		catalog:     catalog,
		calibration: calibration,
		fallback:    fallback,
		logger:      logger,
	}
}

// CalibrateSearchRegion ищет шапку страницы и фиксирует область
// сканирования вокруг неё. Неудача не фатальна: без калибровки
// шаблоны ищутся по всему экрану, просто медленнее.
func (a *UIActions) CalibrateSearchRegion() {
	result := a.matcher.Locate(a.catalog.Header())
	if !result.Found {
		a.logger.Info("шапка страницы не найдена, сканируется весь экран")
		return
	}

	left, top, right, bottom := a.catalog.HeaderPadding()
	box := result.Box
	region := image.Rect(
		box.X-left,
		box.Y-top,
		box.X+box.Width+right,
		box.Y+box.Height+bottom,
	)

	a.calibration.Set(region)
	a.logger.Info("область поиска откалибрована",
		"x", region.Min.X,
		"y", region.Min.Y,
		"width", region.Dx(),
		"height", region.Dy(),
	)
}

// FocusSearchField находит поле поиска по одному из кандидатных шаблонов,
// ставит в него фокус двойным кликом и очищает от прежнего содержимого.
// Если ни один шаблон не совпал, используются статические запасные
// координаты; без них - ошибка ErrSearchFieldNotFound.
func (a *UIActions) FocusSearchField(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := a.locateSearchField()
	if err != nil {
		return err
	}

	a.driver.DoubleClick(target.X, target.Y)
	a.ClearSearchField()

	return nil
}

func (a *UIActions) locateSearchField() (image.Point, error) {
	for _, tmpl := range a.calibration.ApplyAll(a.catalog.SearchFieldCandidates()) {
		result := a.matcher.Locate(tmpl)
		if !result.Found {
			continue
		}

		cx, cy := result.Box.Center()
		target := image.Pt(cx+tmpl.ClickOffset.X, cy+tmpl.ClickOffset.Y)
		a.logger.Debug("поле поиска найдено",
			"template", tmpl.Name,
			"score", result.Score,
			"x", target.X,
			"y", target.Y,
		)

		return target, nil
	}

	if a.fallback != (image.Point{}) {
		a.logger.Warn("поле поиска не найдено по шаблонам, используются запасные координаты",
			"x", a.fallback.X,
			"y", a.fallback.Y,
		)
		return a.fallback, nil
	}

	return image.Point{}, ErrSearchFieldNotFound
}

// ClearSearchField очищает поле поиска, предварительно сняв его
// содержимое через буфер обмена для журнала.
func (a *UIActions) ClearSearchField() {
	a.driver.SelectAll()
	a.driver.Copy()

	if previous, err := a.clipboard.Read(); err == nil && previous != "" {
		a.logger.Debug("поле поиска очищено", "previous", truncate(previous, 40))
	}

	a.driver.PressKey("backspace")
}

// TypePhone вводит номер в сфокусированное поле поиска.
func (a *UIActions) TypePhone(phone string) {
	a.driver.TypeText(phone)
}

// SubmitSearch отправляет запрос клавишей Enter.
func (a *UIActions) SubmitSearch() {
	a.driver.PressKey("enter")
}

// CloseWindowViaConsole закрывает вторичное окно браузера командой
// window.close() из консоли DevTools: у окна нет кнопки закрытия,
// доступной для шаблонного поиска.
func (a *UIActions) CloseWindowViaConsole(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.driver.OpenConsole()
	a.driver.TypeText("window.close()")
	a.driver.PressKey("enter")

	return nil
}

// truncate обрезает строку для журнала.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return fmt.Sprintf("%s...", s[:limit])
}
