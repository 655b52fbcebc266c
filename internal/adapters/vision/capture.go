package vision

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
)

// RobotCapturer реализует ports.ScreenCapturer поверх robotgo.
type RobotCapturer struct{}

// NewRobotCapturer создаёт захватчик экрана.
func NewRobotCapturer() *RobotCapturer {
	return &RobotCapturer{}
}

// Capture делает снимок области экрана. Нулевой прямоугольник
// означает весь экран.
func (c *RobotCapturer) Capture(region image.Rectangle) (*image.RGBA, error) {
	var (
		img image.Image
		err error
	)
	if region.Empty() {
		img, err = robotgo.CaptureImg()
	} else {
		img, err = robotgo.CaptureImg(region.Min.X, region.Min.Y, region.Dx(), region.Dy())
	}
	if err != nil {
		return nil, fmt.Errorf("захват экрана не удался: %w", err)
	}
	return toRGBA(img), nil
}

// toRGBA приводит результат захвата к *image.RGBA.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}
