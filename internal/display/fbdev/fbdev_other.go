//go:build !linux

package fbdev

import (
	"errors"

	"github.com/gaspardpetit/rwv/internal/display"
)

// ErrUnsupported is returned on platforms without a framebuffer device.
var ErrUnsupported = errors.New("fbdev: framebuffer devices require linux")

type Device struct{}

func Open(string) (*Device, error) { return nil, ErrUnsupported }

func (*Device) Width() int                                                      { return 0 }
func (*Device) Height() int                                                     { return 0 }
func (*Device) DrawPixels(int, int, int, int, []byte, display.ColorOrder, bool) {}
func (*Device) Close() error                                                    { return nil }
