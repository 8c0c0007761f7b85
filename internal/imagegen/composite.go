package imagegen

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/jonathan/pin-pipeline/internal/types"
)

// Logo placement, as fractions of the base image.
const (
	logoWidthFraction  = 0.22
	logoMarginFraction = 0.04
)

// CompositeLogo draws logo onto base, bottom-centered, scaled to a fixed
// fraction of the base width. The logo pixels are copied, never generated,
// so brand text stays exact. The result is PNG.
func CompositeLogo(base, logo types.Image) (types.Image, error) {
	baseImg, _, err := image.Decode(bytes.NewReader(base.Data))
	if err != nil {
		return types.Image{}, fmt.Errorf("decode base image: %w", err)
	}
	logoImg, _, err := image.Decode(bytes.NewReader(logo.Data))
	if err != nil {
		return types.Image{}, fmt.Errorf("decode logo: %w", err)
	}

	b := baseImg.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), baseImg, b.Min, draw.Src)

	lb := logoImg.Bounds()
	if lb.Dx() == 0 || lb.Dy() == 0 {
		return types.Image{}, fmt.Errorf("logo has no pixels")
	}
	w := int(float64(b.Dx()) * logoWidthFraction)
	if w < 1 {
		w = 1
	}
	h := lb.Dy() * w / lb.Dx()
	if h < 1 {
		h = 1
	}
	margin := int(float64(b.Dy()) * logoMarginFraction)
	x0 := (b.Dx() - w) / 2
	y0 := b.Dy() - margin - h
	if y0 < 0 {
		y0 = 0
	}
	target := image.Rect(x0, y0, x0+w, y0+h)
	draw.CatmullRom.Scale(canvas, target, logoImg, lb, draw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return types.Image{}, fmt.Errorf("encode png: %w", err)
	}
	return types.Image{Data: out.Bytes(), MIMEType: "image/png"}, nil
}

// Dimensions returns the pixel size of an encoded image.
func Dimensions(img types.Image) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
