// Package input оборачивает синтетический ввод и буфер обмена
// в платформенно-нейтральные операции.
package input

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-vgo/robotgo"
)

// Driver реализует ports.InputDriver и ports.Clipboard поверх robotgo.
// Все физические действия выполняются по принципу «выстрелил и забыл»:
// противоположный UI считается медленным, поэтому после каждого действия
// следует пауза на стабилизацию перед следующим шагом распознавания.
type Driver struct {
	// settle - пауза по умолчанию после действия.
	settle time.Duration
	// typeInterval - интервал между символами при обычном наборе.
	typeInterval time.Duration
}

// NewDriver создаёт драйвер ввода.
func NewDriver(settle, typeInterval time.Duration) *Driver {
	return &Driver{
		settle:       settle,
		typeInterval: typeInterval,
	}
}

// primaryMod возвращает основной модификатор платформы:
// "cmd" на macOS, "ctrl" иначе.
func primaryMod() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

// Click перемещает курсор и кликает в указанной точке.
func (d *Driver) Click(x, y int) {
	robotgo.Move(x, y)
	robotgo.Click()
	d.Settle(d.settle)
}

// DoubleClick выполняет двойной клик в указанной точке.
func (d *Driver) DoubleClick(x, y int) {
	robotgo.Move(x, y)
	robotgo.Click()
	time.Sleep(120 * time.Millisecond)
	robotgo.Click()
	d.Settle(d.settle)
}

// TypeText печатает текст с настроенным интервалом между символами.
func (d *Driver) TypeText(text string) {
	for _, ch := range text {
		robotgo.TypeStr(string(ch))
		time.Sleep(d.typeInterval)
	}
	d.Settle(d.settle)
}

// TypeFast печатает строку без межсимвольного интервала.
// Используется каналом сниппетов для блочного набора.
func (d *Driver) TypeFast(text string) {
	robotgo.TypeStr(text)
}

// PressKey нажимает одну клавишу (enter, escape, delete, backspace...).
func (d *Driver) PressKey(key string) {
	robotgo.KeyTap(key)
	d.Settle(d.settle)
}

// SelectAll выделяет всё содержимое активного элемента.
func (d *Driver) SelectAll() {
	robotgo.KeyTap("a", primaryMod())
	time.Sleep(100 * time.Millisecond)
}

// Copy копирует выделение в буфер обмена.
func (d *Driver) Copy() {
	robotgo.KeyTap("c", primaryMod())
	time.Sleep(100 * time.Millisecond)
}

// Paste вставляет содержимое буфера обмена.
func (d *Driver) Paste() {
	robotgo.KeyTap("v", primaryMod())
	time.Sleep(100 * time.Millisecond)
}

// OpenConsole открывает консоль DevTools браузера сочетанием,
// принятым на данной платформе.
func (d *Driver) OpenConsole() {
	if runtime.GOOS == "darwin" {
		robotgo.KeyTap("j", "cmd", "alt")
	} else {
		robotgo.KeyTap("j", "ctrl", "shift")
	}
	d.Settle(800 * time.Millisecond)
}

// Settle выдерживает паузу на стабилизацию UI.
func (d *Driver) Settle(dur time.Duration) {
	time.Sleep(dur)
}

// Read читает текст из системного буфера обмена.
func (d *Driver) Read() (string, error) {
	text, err := robotgo.ReadAll()
	if err != nil {
		return "", fmt.Errorf("чтение буфера обмена не удалось: %w", err)
	}
	return text, nil
}

// Write записывает текст в системный буфер обмена.
func (d *Driver) Write(text string) error {
	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("запись в буфер обмена не удалась: %w", err)
	}
	return nil
}
