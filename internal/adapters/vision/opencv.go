package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// OpenCVEngine - основной движок сопоставления: нормированная
// кросс-корреляция (TM_CCOEFF_NORMED) средствами OpenCV, с обходом
// кандидатных масштабов и выбором глобально лучшего результата.
type OpenCVEngine struct{}

// Match реализует интерфейс engine.
func (e *OpenCVEngine) Match(frame, tmpl *image.Gray, scales []float64, confidence float64) (matchResult, error) {
	frameMat, err := gocv.ImageGrayToMatGray(frame)
	if err != nil {
		return matchResult{}, fmt.Errorf("не удалось преобразовать кадр в Mat: %w", err)
	}
	defer frameMat.Close()

	tmplMat, err := gocv.ImageGrayToMatGray(tmpl)
	if err != nil {
		return matchResult{}, fmt.Errorf("не удалось преобразовать шаблон в Mat: %w", err)
	}
	defer tmplMat.Close()

	var best matchResult
	for _, scale := range scales {
		scaled, release := e.scaled(tmplMat, scale)

		// Масштаб, при котором шаблон больше кадра, пропускается
		if scaled.Rows() > frameMat.Rows() || scaled.Cols() > frameMat.Cols() {
			release()
			continue
		}

		result := gocv.NewMat()
		mask := gocv.NewMat()
		gocv.MatchTemplate(frameMat, scaled, &result, gocv.TmCcoeffNormed, mask)
		_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
		w, h := scaled.Cols(), scaled.Rows()
		result.Close()
		mask.Close()
		release()

		score := float64(maxVal)
		if score < confidence {
			continue
		}
		if !best.Found || score > best.Score {
			best = matchResult{
				Found: true,
				Score: score,
				Rect:  image.Rect(maxLoc.X, maxLoc.Y, maxLoc.X+w, maxLoc.Y+h),
			}
		}
	}
	return best, nil
}

// scaled возвращает шаблон в нужном масштабе и функцию освобождения.
// Масштаб ~1.0 не требует изменения размера.
func (e *OpenCVEngine) scaled(tmpl gocv.Mat, scale float64) (gocv.Mat, func()) {
	if scale > 0.999 && scale < 1.001 {
		return tmpl, func() {}
	}
	w := tmpl.Cols()
	h := tmpl.Rows()
	scaledW := max(1, int(float64(w)*scale))
	scaledH := max(1, int(float64(h)*scale))

	dst := gocv.NewMat()
	gocv.Resize(tmpl, &dst, image.Pt(scaledW, scaledH), 0, 0, gocv.InterpolationLinear)
	return dst, func() { dst.Close() }
}
