package config

import (
	"flag"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestResolveConfigPath(t *testing.T) {
	tests := []struct {
		name        string
		goos        string
		home        string
		programData string
		want        string
	}{
		{name: "linux", goos: "linux", home: "/home/user", want: "/etc/rwv/device.yaml"},
		{name: "darwin", goos: "darwin", home: "/Users/test", want: "/Users/test/Library/Application Support/rwv/device.yaml"},
		{name: "windows", goos: "windows", programData: "C:\\ProgramData\\", want: "C:/ProgramData/rwv/device.yaml"},
		{name: "windows default ProgramData", goos: "windows", want: "C:/ProgramData/rwv/device.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.ReplaceAll(ResolveConfigPath(tt.goos, tt.home, tt.programData, "device.yaml"), "\\", "/")
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestParseServer(t *testing.T) {
	tests := []struct {
		in   string
		host string
		port int
		ok   bool
	}{
		{"display.local:8081", "display.local", 8081, true},
		{"10.0.0.5:1", "10.0.0.5", 1, true},
		{" host:65535 ", "host", 65535, true},
		{"host:0", "", 0, false},
		{"host:65536", "", 0, false},
		{"host:", "", 0, false},
		{"host", "", 0, false},
		{"-host:80", "", 0, false},
		{"[::1]:80", "", 0, false},
		{"host:123456", "", 0, false},
	}
	for _, tt := range tests {
		host, port, err := ParseServer(tt.in)
		if (err == nil) != tt.ok || host != tt.host || port != tt.port {
			t.Errorf("ParseServer(%q) = %q, %d, %v", tt.in, host, port, err)
		}
	}
}

func TestBuildURI(t *testing.T) {
	c := Defaults()
	c.Server = "srv.local:8081"
	if got, want := c.BuildURI("dev1", 480, 320), "ws://srv.local:8081/?id=dev1&w=480&h=320&r=0"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	c.Rotation = -1
	c.TileSize = 32
	c.FullFrameTileCount = 4
	c.FullFrameAreaThreshold = 0.5
	c.FullFrameEvery = 50
	c.EveryNthFrame = 1
	c.MinFrameInterval = 80
	c.JPEGQuality = 85
	c.MaxBytesPerMsg = 14336
	want := "ws://srv.local:8081/?w=800&h=480&ts=32&fftc=4&ffat=0.50&ffe=50&enf=1&mfi=80&q=85&mbpm=14336"
	if got := c.BuildURI("", 800, 480); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestResolveDeviceID(t *testing.T) {
	if got := resolveDeviceID("mine", nil); got != "mine" {
		t.Fatalf("configured id ignored: %q", got)
	}
	ifaces := []net.Interface{
		{Name: "lo", Flags: net.FlagLoopback, HardwareAddr: net.HardwareAddr{0, 0, 0, 0, 0, 0}},
		{Name: "eth0", HardwareAddr: net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}},
	}
	if got := resolveDeviceID("", ifaces); got != "rwv-deadbeef0001" {
		t.Fatalf("mac id %q", got)
	}
	if got := resolveDeviceID("", nil); !strings.HasPrefix(got, "rwv-") || len(got) != 12 {
		t.Fatalf("random id %q", got)
	}
}

func TestBindFlagSetEnvAndFlags(t *testing.T) {
	t.Setenv("SERVER", "env.local:9000")
	t.Setenv("TILE_SIZE", "64")
	t.Setenv("METRICS_PORT", "9090")
	var c DeviceConfig
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.BindFlagSet(fs)
	if err := fs.Parse([]string{"-url", "http://page", "-tile-size", "16"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Server != "env.local:9000" || c.URL != "http://page" || c.TileSize != 16 {
		t.Fatalf("config %+v", c)
	}
	if c.MetricsAddr != ":9090" {
		t.Fatalf("metrics addr %q", c.MetricsAddr)
	}
	if c.QueueDepth != 12 || c.MaxMessageBytes != 64*1024 || c.MoveInterval != 16*time.Millisecond {
		t.Fatalf("defaults not applied: %+v", c)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	c := Defaults()
	c.URL = "http://keep"
	path := filepath.Join(t.TempDir(), "device.yaml")
	data := "server: file.local:8081\nwidth: 800\nkeepalive_interval: 5s\nbig_endian: true\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server != "file.local:8081" || c.Width != 800 || c.KeepaliveInterval != 5*time.Second || !c.BigEndian {
		t.Fatalf("config %+v", c)
	}
	if c.URL != "http://keep" || c.Height != 480 {
		t.Fatalf("unset fields changed: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	c := Defaults()
	c.Server = "srv:80"
	if err := c.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	bad := c
	bad.Server = "srv"
	bad.Rotation = 45
	bad.ColorOrder = "grb"
	err := bad.Validate()
	if err == nil {
		t.Fatalf("invalid config accepted")
	}
	for _, s := range []string{"host:port", "rotation", "color order"} {
		if !strings.Contains(err.Error(), s) {
			t.Fatalf("error %q missing %q", err, s)
		}
	}
}
