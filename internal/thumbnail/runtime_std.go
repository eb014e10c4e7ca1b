//go:build !govips || !cgo

package thumbnail

func Startup() error {
	return nil
}

func Shutdown() {}

func newRenderer() (Renderer, error) {
	return stdRenderer{}, nil
}
