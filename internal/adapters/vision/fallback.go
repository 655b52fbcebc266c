package vision

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// fallbackStride - шаг обхода позиций запасного движка. Движок намеренно
// грубее основного: он расплачивается точностью за отсутствие внешних
// зависимостей.
const fallbackStride = 2

// FallbackEngine - структурный запасной движок: нормированная
// кросс-корреляция, реализованная напрямую над изображениями в оттенках
// серого. Используется, когда основной движок OpenCV отказал или отключён.
type FallbackEngine struct{}

// Match реализует интерфейс engine.
func (e *FallbackEngine) Match(frame, tmpl *image.Gray, scales []float64, confidence float64) (matchResult, error) {
	var best matchResult
	for _, scale := range scales {
		scaled := scaleGray(tmpl, scale)

		tw := scaled.Bounds().Dx()
		th := scaled.Bounds().Dy()
		fw := frame.Bounds().Dx()
		fh := frame.Bounds().Dy()
		if tw > fw || th > fh || tw == 0 || th == 0 {
			continue
		}

		score, loc := nccSearch(frame, scaled, fallbackStride)
		if score < confidence {
			continue
		}
		if !best.Found || score > best.Score {
			best = matchResult{
				Found: true,
				Score: score,
				Rect:  image.Rect(loc.X, loc.Y, loc.X+tw, loc.Y+th),
			}
		}
	}
	return best, nil
}

// scaleGray изменяет размер шаблона билинейной интерполяцией.
// Масштаб ~1.0 возвращает оригинал без копирования.
func scaleGray(tmpl *image.Gray, scale float64) *image.Gray {
	if scale > 0.999 && scale < 1.001 {
		return tmpl
	}
	w := tmpl.Bounds().Dx()
	h := tmpl.Bounds().Dy()
	scaledW := int(math.Max(1, float64(w)*scale))
	scaledH := int(math.Max(1, float64(h)*scale))

	dst := image.NewGray(image.Rect(0, 0, scaledW, scaledH))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), tmpl, tmpl.Bounds(), xdraw.Src, nil)
	return dst
}

// nccSearch находит позицию максимальной нормированной кросс-корреляции
// шаблона в кадре, обходя позиции с заданным шагом.
func nccSearch(frame, tmpl *image.Gray, stride int) (float64, image.Point) {
	tw := tmpl.Bounds().Dx()
	th := tmpl.Bounds().Dy()
	fw := frame.Bounds().Dx()
	fh := frame.Bounds().Dy()
	n := float64(tw * th)

	// Статистика шаблона считается один раз
	var tSum, tSumSq float64
	for y := 0; y < th; y++ {
		row := tmpl.Pix[y*tmpl.Stride : y*tmpl.Stride+tw]
		for _, v := range row {
			fv := float64(v)
			tSum += fv
			tSumSq += fv * fv
		}
	}
	tMean := tSum / n
	tVar := tSumSq - n*tMean*tMean
	if tVar <= 0 {
		// Однотонный шаблон не допускает нормировки
		return 0, image.Point{}
	}

	bestScore := math.Inf(-1)
	var bestLoc image.Point

	for y := 0; y+th <= fh; y += stride {
		for x := 0; x+tw <= fw; x += stride {
			var iSum, iSumSq, cross float64
			for ty := 0; ty < th; ty++ {
				fRow := frame.Pix[(y+ty)*frame.Stride+x : (y+ty)*frame.Stride+x+tw]
				tRow := tmpl.Pix[ty*tmpl.Stride : ty*tmpl.Stride+tw]
				for tx := 0; tx < tw; tx++ {
					fv := float64(fRow[tx])
					tv := float64(tRow[tx])
					iSum += fv
					iSumSq += fv * fv
					cross += fv * tv
				}
			}
			iMean := iSum / n
			iVar := iSumSq - n*iMean*iMean
			if iVar <= 0 {
				continue
			}
			score := (cross - n*iMean*tMean) / math.Sqrt(tVar*iVar)
			if score > bestScore {
				bestScore = score
				bestLoc = image.Pt(x, y)
			}
		}
	}

	if math.IsInf(bestScore, -1) {
		return 0, image.Point{}
	}
	return bestScore, bestLoc
}
