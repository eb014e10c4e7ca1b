//go:build govips && cgo

package thumbnail

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
)

type govipsRenderer struct{}

func (govipsRenderer) Render(ctx context.Context, input []byte, r Rendition) ([]byte, int, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, 0, err
	}

	img, err := vips.NewImageFromBuffer(input)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode source image: %w", err)
	}
	defer img.Close()

	width, _ := targetSize(img.Width(), img.Height(), r.Width)
	if width != img.Width() {
		if err := img.Resize(float64(width)/float64(img.Width()), vips.KernelLanczos3); err != nil {
			return nil, 0, 0, fmt.Errorf("resize image: %w", err)
		}
	}

	params := vips.NewJpegExportParams()
	if r.Quality > 0 && r.Quality <= 100 {
		params.Quality = r.Quality
	}
	params.StripMetadata = true
	data, _, err := img.ExportJpeg(params)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return data, img.Width(), img.Height(), nil
}
