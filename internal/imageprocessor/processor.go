package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

// ImageSize - ограничивающий прямоугольник для ресайза.
type ImageSize struct {
	Name   string
	Width  int
	Height int
}

var (
	SizeThumbnail = ImageSize{Name: "thumbnail", Width: 320, Height: 180}
	SizeCover     = ImageSize{Name: "cover", Width: 1280, Height: 720}
)

// Processor makes JPEG renditions of uploaded covers.
type Processor struct {
	quality int // JPEG quality (1-100)
}

func NewProcessor(quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Processor{quality: quality}
}

// Result is one encoded rendition.
type Result struct {
	Data   []byte
	Width  int
	Height int
}

// Resize decodes jpeg/png, fits it into size keeping the aspect ratio and
// encodes as JPEG. Images already smaller than size are not upscaled.
func (p *Processor) Resize(reader io.Reader, size ImageSize) (*Result, error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := fit(img, size.Width, size.Height)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	b := resized.Bounds()
	return &Result{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

func fit(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxWidth && height <= maxHeight {
		return img
	}

	ratio := float64(width) / float64(height)
	newWidth, newHeight := maxWidth, maxHeight
	if float64(maxWidth)/float64(maxHeight) > ratio {
		newWidth = int(float64(maxHeight) * ratio)
	} else {
		newHeight = int(float64(maxWidth) / ratio)
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
