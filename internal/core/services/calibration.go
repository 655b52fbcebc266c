package services

import (
	"image"
	"sync"

	"github.com/joumichy/botorange/internal/domain"
)

// Calibration хранит откалиброванную область сканирования экрана.
// До калибровки область пустая, и шаблоны ищутся по всему экрану.
type Calibration struct {
	mutex  sync.RWMutex
	region image.Rectangle
}

// Set фиксирует область сканирования.
func (c *Calibration) Set(region image.Rectangle) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.region = region
}

// Region возвращает текущую область (пустую, если калибровки не было).
func (c *Calibration) Region() image.Rectangle {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.region
}

// Apply подставляет область сканирования в шаблон, если у него нет своей
// и калибровка уже выполнена.
func (c *Calibration) Apply(tmpl domain.Template) domain.Template {
	if !tmpl.Region.Empty() {
		return tmpl
	}

	region := c.Region()
	if region.Empty() {
		return tmpl
	}

	tmpl.Region = region

	return tmpl
}

// ApplyAll подставляет область сканирования в каждый шаблон набора.
func (c *Calibration) ApplyAll(templates []domain.Template) []domain.Template {
	applied := make([]domain.Template, len(templates))
	for i, tmpl := range templates {
		applied[i] = c.Apply(tmpl)
	}

	return applied
}
