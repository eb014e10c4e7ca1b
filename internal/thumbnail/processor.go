// Package thumbnail renders clip thumbnail renditions from an uploaded image.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dunamismax/clipit/internal/storage"
)

// Rendition is one JPEG size produced for every clip thumbnail.
type Rendition struct {
	Name    string
	Width   int
	Quality int
}

var DefaultRenditions = []Rendition{
	{Name: "thumb_small", Width: 320, Quality: 75},
	{Name: "thumb_large", Width: 1280, Quality: 85},
}

// Renderer scales an image to a rendition and encodes it as JPEG.
type Renderer interface {
	Render(ctx context.Context, input []byte, r Rendition) (data []byte, width, height int, err error)
}

type Source interface {
	ReadObject(ctx context.Context, objectKey string) ([]byte, error)
}

type Sink interface {
	WriteObject(ctx context.Context, objectKey string, data []byte, contentType string) error
}

type Output struct {
	Rendition string
	ObjectKey string
	Bytes     int
	Width     int
	Height    int
}

type Processor struct {
	source     Source
	sink       Sink
	renderer   Renderer
	renditions []Rendition
}

// NewProcessor uses the build's default renderer: libvips with the govips
// tag, the pure Go scaler otherwise.
func NewProcessor(source Source, sink Sink) (*Processor, error) {
	renderer, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("build renderer: %w", err)
	}
	return NewProcessorWithRenderer(source, sink, renderer, DefaultRenditions)
}

func NewProcessorWithRenderer(source Source, sink Sink, renderer Renderer, renditions []Rendition) (*Processor, error) {
	if source == nil || sink == nil {
		return nil, errors.New("thumbnail source and sink are required")
	}
	if renderer == nil {
		return nil, errors.New("thumbnail renderer is required")
	}
	if len(renditions) == 0 {
		return nil, errors.New("at least one rendition is required")
	}
	return &Processor{source: source, sink: sink, renderer: renderer, renditions: renditions}, nil
}

// Process renders every rendition of objectKey into thumbnails/<clipID>/.
// The last rendition is the largest and is what clips link to.
func (p *Processor) Process(ctx context.Context, clipID, objectKey string) ([]Output, error) {
	if strings.TrimSpace(clipID) == "" {
		return nil, errors.New("clip id is required")
	}

	input, err := p.source.ReadObject(ctx, objectKey)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}

	outputs := make([]Output, 0, len(p.renditions))
	for _, r := range p.renditions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, width, height, err := p.renderer.Render(ctx, input, r)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", r.Name, err)
		}

		key := storage.ThumbnailKey(clipID, r.Name)
		if err := p.sink.WriteObject(ctx, key, data, "image/jpeg"); err != nil {
			return nil, fmt.Errorf("store %s: %w", r.Name, err)
		}
		outputs = append(outputs, Output{
			Rendition: r.Name,
			ObjectKey: key,
			Bytes:     len(data),
			Width:     width,
			Height:    height,
		})
	}
	return outputs, nil
}

// targetSize keeps the aspect ratio and never upscales.
func targetSize(srcW, srcH, width int) (int, int) {
	if width <= 0 || width >= srcW {
		return srcW, srcH
	}
	height := (srcH*width + srcW/2) / srcW
	return width, max(1, height)
}
