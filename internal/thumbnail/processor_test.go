package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryObjects) ReadObject(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func (m *memoryObjects) WriteObject(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func buildPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessWritesRenditions(t *testing.T) {
	objects := newMemoryObjects()
	objects.objects["uploads/u/thumbnail/src"] = buildPNG(t, 1600, 900)

	p, err := NewProcessorWithRenderer(objects, objects, stdRenderer{}, DefaultRenditions)
	require.NoError(t, err)

	outputs, err := p.Process(context.Background(), "clip-1", "uploads/u/thumbnail/src")
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	assert.Equal(t, "thumbnails/clip-1/thumb_small.jpg", outputs[0].ObjectKey)
	assert.Equal(t, 320, outputs[0].Width)
	assert.Equal(t, 180, outputs[0].Height)
	assert.Equal(t, 1280, outputs[1].Width)
	assert.Equal(t, 720, outputs[1].Height)

	stored := objects.objects[outputs[1].ObjectKey]
	assert.Equal(t, "image/jpeg", objects.types[outputs[1].ObjectKey])
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Width)
}

func TestProcessDoesNotUpscale(t *testing.T) {
	objects := newMemoryObjects()
	objects.objects["src"] = buildPNG(t, 200, 100)

	p, err := NewProcessorWithRenderer(objects, objects, stdRenderer{}, DefaultRenditions)
	require.NoError(t, err)

	outputs, err := p.Process(context.Background(), "clip-2", "src")
	require.NoError(t, err)
	for _, out := range outputs {
		assert.Equal(t, 200, out.Width, out.Rendition)
		assert.Equal(t, 100, out.Height, out.Rendition)
	}
}

func TestProcessRejectsBadInput(t *testing.T) {
	objects := newMemoryObjects()
	objects.objects["junk"] = []byte("not an image")

	p, err := NewProcessorWithRenderer(objects, objects, stdRenderer{}, DefaultRenditions)
	require.NoError(t, err)

	_, err = p.Process(context.Background(), "clip-3", "junk")
	assert.ErrorContains(t, err, "decode source image")

	_, err = p.Process(context.Background(), "clip-3", "missing")
	assert.ErrorContains(t, err, "fetch source")

	_, err = p.Process(context.Background(), " ", "junk")
	assert.Error(t, err)
}

func TestTargetSize(t *testing.T) {
	w, h := targetSize(1920, 1080, 320)
	assert.Equal(t, 320, w)
	assert.Equal(t, 180, h)

	w, h = targetSize(100, 3000, 50)
	assert.Equal(t, 50, w)
	assert.Equal(t, 1500, h)
}
