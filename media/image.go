package media

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"github.com/sirupsen/logrus"
)

// потолок WhatsApp на размер вложения
const MaxUploadBytes = 16 * 1024 * 1024

// максимальная длинная сторона картинки после подготовки
const maxImageSide = 1920

var ErrImagenMuyGrande = errors.New("la imagen supera el tamaño máximo incluso con la calidad mínima")

// PrepareImage готовит картинку к отправке: ужимает до 1920 по длинной
// стороне и перекодирует в JPEG, понижая качество шагами 0.9 -> 0.1,
// пока результат не влезет в потолок. Не влез на минимальном качестве -
// отправлять нечего.
func PrepareImage(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	scaled := downscale(img, maxImageSide)

	for q := 90; q >= 10; q -= 10 {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: q}); err != nil {
			return nil, err
		}
		if buf.Len() <= MaxUploadBytes {
			logrus.WithFields(logrus.Fields{
				"format":  format,
				"quality": q,
				"bytes":   buf.Len(),
			}).Debug("imagen preparada")
			return buf.Bytes(), nil
		}
	}
	return nil, ErrImagenMuyGrande
}

// downscale ужимает картинку так, чтобы длинная сторона не превышала max.
// Берётся ближайший пиксель: для фото в чате этого достаточно.
func downscale(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return img
	}

	var nw, nh int
	if w >= h {
		nw = max
		nh = h * max / w
	} else {
		nh = max
		nw = w * max / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		sy := b.Min.Y + y*h/nh
		for x := 0; x < nw; x++ {
			sx := b.Min.X + x*w/nw
			dst.Set(x, y, img.At(sx, sy))
		}
	}
	return dst
}
