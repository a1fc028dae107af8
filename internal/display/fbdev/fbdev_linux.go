//go:build linux

// Package fbdev drives a Linux framebuffer device (/dev/fbN) as a display
// surface. Only 16 bits per pixel framebuffers are supported.
package fbdev

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/gaspardpetit/rwv/internal/display"
	"github.com/gaspardpetit/rwv/internal/logx"
)

const (
	ioctlGetVScreenInfo = 0x4600
	varScreenInfoSize   = 160
)

// Device is a memory-mapped framebuffer.
type Device struct {
	mu     sync.Mutex
	fd     int
	mem    []byte
	width  int
	height int
	stride int
}

// Open maps the framebuffer at path.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	var info [varScreenInfoSize]byte
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), ioctlGetVScreenInfo, uintptr(unsafe.Pointer(&info[0]))); errno != 0 {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("query %s: %w", path, errno)
	}
	xres := int(binary.LittleEndian.Uint32(info[0:4]))
	yres := int(binary.LittleEndian.Uint32(info[4:8]))
	xvirt := int(binary.LittleEndian.Uint32(info[8:12]))
	bpp := int(binary.LittleEndian.Uint32(info[24:28]))
	if bpp != 16 {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%s: %d bits per pixel, need 16", path, bpp)
	}
	if xvirt < xres {
		xvirt = xres
	}
	d := &Device{fd: fd, width: xres, height: yres, stride: xvirt * 2}
	d.mem, err = unix.Mmap(fd, 0, d.stride*yres, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	logx.Log.Info().Str("device", path).Int("width", xres).Int("height", yres).Msg("framebuffer opened")
	return d, nil
}

func (d *Device) Width() int  { return d.width }
func (d *Device) Height() int { return d.height }

// DrawPixels copies packed pixels row by row, clipped to the screen.
func (d *Device) DrawPixels(x, y, w, h int, pix []byte, _ display.ColorOrder, _ bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mem == nil {
		return
	}
	for row := 0; row < h; row++ {
		dy := y + row
		if dy < 0 || dy >= d.height {
			continue
		}
		x0, x1 := max(x, 0), min(x+w, d.width)
		if x0 >= x1 {
			continue
		}
		copy(d.mem[dy*d.stride+x0*2:], pix[(row*w+x0-x)*2:(row*w+x1-x)*2])
	}
}

// Close unmaps and closes the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mem == nil {
		return nil
	}
	err := unix.Munmap(d.mem)
	d.mem = nil
	if cerr := unix.Close(d.fd); err == nil {
		err = cerr
	}
	return err
}
