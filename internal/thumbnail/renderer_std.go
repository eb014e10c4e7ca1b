package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

type stdRenderer struct{}

func (stdRenderer) Render(ctx context.Context, input []byte, r Rendition) ([]byte, int, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, 0, err
	}

	src, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode source image: %w", err)
	}
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, 0, 0, errors.New("source image has invalid dimensions")
	}

	width, height := targetSize(bounds.Dx(), bounds.Dy(), r.Width)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	quality := r.Quality
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), width, height, nil
}
