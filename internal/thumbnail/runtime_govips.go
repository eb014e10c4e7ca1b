//go:build govips && cgo

package thumbnail

import (
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	startupOnce sync.Once
	shutdownMu  sync.Mutex
	started     bool
)

// Startup initialises libvips once per process.
func Startup() error {
	startupOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(&vips.Config{
			MaxCacheFiles: 0,
			MaxCacheMem:   64 * 1024 * 1024,
			MaxCacheSize:  50,
		})

		shutdownMu.Lock()
		started = true
		shutdownMu.Unlock()
	})
	return nil
}

func Shutdown() {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if !started {
		return
	}
	vips.Shutdown()
	started = false
}

func newRenderer() (Renderer, error) {
	return govipsRenderer{}, nil
}
