package vision

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
)

// templateCache хранит загруженные и переведённые в оттенки серого шаблоны
// на время жизни процесса. Отсутствующие или нечитаемые файлы кэшируются
// отрицательно, чтобы не перечитывать их на каждом цикле опроса.
type templateCache struct {
	mutex sync.RWMutex
	items map[string]*image.Gray
}

func newTemplateCache() *templateCache {
	return &templateCache{
		items: make(map[string]*image.Gray),
	}
}

// Get возвращает шаблон по пути, загружая его при первом обращении.
// Возвращает nil для отсутствующих или нечитаемых файлов.
func (c *templateCache) Get(path string) *image.Gray {
	c.mutex.RLock()
	img, exists := c.items[path]
	c.mutex.RUnlock()
	if exists {
		return img
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	// Повторная проверка под write-блокировкой
	if img, exists := c.items[path]; exists {
		return img
	}

	loaded, err := loadGray(path)
	if err != nil {
		// Отрицательная запись: деградация до постоянно несовпадающего шаблона
		c.items[path] = nil
		return nil
	}
	c.items[path] = loaded
	return loaded
}

// loadGray читает изображение с диска и приводит его к оттенкам серого.
func loadGray(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть шаблон %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("не удалось декодировать шаблон %s: %w", path, err)
	}
	return toGray(img), nil
}

// toGray переводит произвольное изображение в оттенки серого.
func toGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}
