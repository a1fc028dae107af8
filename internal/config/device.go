package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DeviceConfig holds configuration for the display client. It is written
// once at startup and read-only afterwards.
type DeviceConfig struct {
	Server   string `yaml:"server"`
	URL      string `yaml:"url"`
	DeviceID string `yaml:"device_id"`

	// Display geometry reported to the server. A framebuffer device
	// overrides these with its own resolution.
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Rotation   int    `yaml:"rotation"`
	BigEndian  bool   `yaml:"big_endian"`
	ColorOrder string `yaml:"color_order"`

	// Rendering hints forwarded to the server; negative means unset.
	TileSize               int     `yaml:"tile_size"`
	FullFrameTileCount     int     `yaml:"full_frame_tile_count"`
	FullFrameAreaThreshold float64 `yaml:"full_frame_area_threshold"`
	FullFrameEvery         int     `yaml:"full_frame_every"`
	EveryNthFrame          int     `yaml:"every_nth_frame"`
	MinFrameInterval       int     `yaml:"min_frame_interval"`
	JPEGQuality            int     `yaml:"jpeg_quality"`
	MaxBytesPerMsg         int     `yaml:"max_bytes_per_msg"`

	MaxMessageBytes   int           `yaml:"max_message_bytes"`
	BufferSize        int           `yaml:"buffer_size"`
	QueueDepth        int           `yaml:"queue_depth"`
	KeepaliveInterval time.Duration `yaml:"keepalive_interval"`
	MoveInterval      time.Duration `yaml:"move_interval"`
	AcceleratedDecode bool          `yaml:"accelerated_decode"`
	Reconnect         bool          `yaml:"reconnect"`

	Framebuffer string `yaml:"framebuffer"`
	TouchDevice string `yaml:"touch_device"`
	TouchMaxX   int    `yaml:"touch_max_x"`
	TouchMaxY   int    `yaml:"touch_max_y"`

	StatusAddr     string   `yaml:"status_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MetricsAddr    string   `yaml:"metrics_addr"`
	RedisURL       string   `yaml:"redis_url"`

	ConfigFile string `yaml:"-"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
}

// Defaults returns a config with every default applied and nothing read from
// the environment.
func Defaults() DeviceConfig {
	return DeviceConfig{
		Width:                  480,
		Height:                 480,
		ColorOrder:             "rgb",
		TileSize:               -1,
		FullFrameTileCount:     -1,
		FullFrameAreaThreshold: -1,
		FullFrameEvery:         -1,
		EveryNthFrame:          -1,
		MinFrameInterval:       -1,
		JPEGQuality:            -1,
		MaxBytesPerMsg:         -1,
		MaxMessageBytes:        64 * 1024,
		BufferSize:             30 * 1024,
		QueueDepth:             12,
		KeepaliveInterval:      10 * time.Second,
		MoveInterval:           16 * time.Millisecond,
		AcceleratedDecode:      true,
		Reconnect:              true,
		LogLevel:               "info",
		LogFormat:              "console",
	}
}

// BindFlags populates the struct with defaults from environment variables
// and binds command line flags so main can call flag.Parse().
func (c *DeviceConfig) BindFlags() {
	c.BindFlagSet(flag.CommandLine)
}

// BindFlagSet is BindFlags for an explicit flag set.
func (c *DeviceConfig) BindFlagSet(fs *flag.FlagSet) {
	d := Defaults()
	c.ConfigFile = GetEnv("CONFIG_FILE", DefaultConfigPath("device.yaml"))
	c.LogLevel = GetEnv("LOG_LEVEL", d.LogLevel)
	c.LogFormat = GetEnv("LOG_FORMAT", d.LogFormat)

	c.Server = GetEnv("SERVER", "")
	c.URL = GetEnv("URL", "")
	c.DeviceID = GetEnv("DEVICE_ID", "")
	c.Width = envInt("WIDTH", d.Width)
	c.Height = envInt("HEIGHT", d.Height)
	c.Rotation = envInt("ROTATION", d.Rotation)
	c.BigEndian = envBool("BIG_ENDIAN", d.BigEndian)
	c.ColorOrder = GetEnv("COLOR_ORDER", d.ColorOrder)

	c.TileSize = envInt("TILE_SIZE", d.TileSize)
	c.FullFrameTileCount = envInt("FULL_FRAME_TILE_COUNT", d.FullFrameTileCount)
	c.FullFrameAreaThreshold = envFloat("FULL_FRAME_AREA_THRESHOLD", d.FullFrameAreaThreshold)
	c.FullFrameEvery = envInt("FULL_FRAME_EVERY", d.FullFrameEvery)
	c.EveryNthFrame = envInt("EVERY_NTH_FRAME", d.EveryNthFrame)
	c.MinFrameInterval = envInt("MIN_FRAME_INTERVAL", d.MinFrameInterval)
	c.JPEGQuality = envInt("JPEG_QUALITY", d.JPEGQuality)
	c.MaxBytesPerMsg = envInt("MAX_BYTES_PER_MSG", d.MaxBytesPerMsg)

	c.MaxMessageBytes = envInt("MAX_MESSAGE_BYTES", d.MaxMessageBytes)
	c.BufferSize = envInt("BUFFER_SIZE", d.BufferSize)
	c.QueueDepth = envInt("QUEUE_DEPTH", d.QueueDepth)
	c.KeepaliveInterval = envDuration("KEEPALIVE_INTERVAL", d.KeepaliveInterval)
	c.MoveInterval = envDuration("MOVE_INTERVAL", d.MoveInterval)
	c.AcceleratedDecode = envBool("ACCELERATED_DECODE", d.AcceleratedDecode)
	c.Reconnect = envBool("RECONNECT", d.Reconnect)

	c.Framebuffer = GetEnv("FRAMEBUFFER", "")
	c.TouchDevice = GetEnv("TOUCH_DEVICE", "")
	c.TouchMaxX = envInt("TOUCH_MAX_X", 0)
	c.TouchMaxY = envInt("TOUCH_MAX_Y", 0)

	c.StatusAddr = GetEnv("STATUS_ADDR", "")
	if v := GetEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = strings.Split(v, ",")
	}
	mp := GetEnv("METRICS_PORT", "")
	if mp != "" && !strings.Contains(mp, ":") {
		mp = ":" + mp
	}
	c.MetricsAddr = mp
	c.RedisURL = GetEnv("REDIS_URL", "")

	fs.StringVar(&c.Server, "server", c.Server, "rendering server as host:port")
	fs.StringVar(&c.URL, "url", c.URL, "page the server should open on connect")
	fs.StringVar(&c.DeviceID, "device-id", c.DeviceID, "device identifier; derived from the MAC address if omitted")
	fs.IntVar(&c.Width, "width", c.Width, "display width in pixels (ignored with --framebuffer)")
	fs.IntVar(&c.Height, "height", c.Height, "display height in pixels (ignored with --framebuffer)")
	fs.IntVar(&c.Rotation, "rotation", c.Rotation, "display rotation in degrees reported to the server (-1 to omit)")
	fs.BoolVar(&c.BigEndian, "big-endian", c.BigEndian, "pack pixels most significant byte first")
	fs.StringVar(&c.ColorOrder, "color-order", c.ColorOrder, "pixel channel order (rgb or bgr)")
	fs.IntVar(&c.TileSize, "tile-size", c.TileSize, "tile size hint (-1 to omit)")
	fs.IntVar(&c.FullFrameTileCount, "full-frame-tile-count", c.FullFrameTileCount, "changed tiles above which a full frame is sent (-1 to omit)")
	fs.Float64Var(&c.FullFrameAreaThreshold, "full-frame-area-threshold", c.FullFrameAreaThreshold, "changed area ratio above which a full frame is sent (-1 to omit)")
	fs.IntVar(&c.FullFrameEvery, "full-frame-every", c.FullFrameEvery, "force a full frame every N frames (-1 to omit)")
	fs.IntVar(&c.EveryNthFrame, "every-nth-frame", c.EveryNthFrame, "send only every Nth frame (-1 to omit)")
	fs.IntVar(&c.MinFrameInterval, "min-frame-interval", c.MinFrameInterval, "minimum milliseconds between frames (-1 to omit)")
	fs.IntVar(&c.JPEGQuality, "jpeg-quality", c.JPEGQuality, "JPEG quality hint (-1 to omit)")
	fs.IntVar(&c.MaxBytesPerMsg, "max-bytes-per-msg", c.MaxBytesPerMsg, "server message size hint (-1 to omit)")
	fs.IntVar(&c.MaxMessageBytes, "max-message-bytes", c.MaxMessageBytes, "largest message the device accepts")
	fs.IntVar(&c.BufferSize, "buffer-size", c.BufferSize, "fragment size for incoming messages")
	fs.IntVar(&c.QueueDepth, "queue-depth", c.QueueDepth, "messages buffered between network and decoder")
	fs.DurationVar(&c.KeepaliveInterval, "keepalive-interval", c.KeepaliveInterval, "interval between keepalive packets")
	fs.DurationVar(&c.MoveInterval, "move-interval", c.MoveInterval, "minimum spacing of forwarded touch moves (0 forwards all)")
	fs.BoolVar(&c.AcceleratedDecode, "accelerated-decode", c.AcceleratedDecode, "use the fixed-buffer decoder for aligned tiles")
	fs.BoolVar(&c.Reconnect, "reconnect", c.Reconnect, "reconnect to server on failure")
	fs.StringVar(&c.Framebuffer, "framebuffer", c.Framebuffer, "framebuffer device (e.g. /dev/fb0); in-memory display when empty")
	fs.StringVar(&c.TouchDevice, "touch-device", c.TouchDevice, "evdev touch device (e.g. /dev/input/event0)")
	fs.IntVar(&c.TouchMaxX, "touch-max-x", c.TouchMaxX, "raw touch X maximum for scaling (0 for none)")
	fs.IntVar(&c.TouchMaxY, "touch-max-y", c.TouchMaxY, "raw touch Y maximum for scaling (0 for none)")
	fs.StringVar(&c.StatusAddr, "status-addr", c.StatusAddr, "local status HTTP listen address (enables /status; e.g. 127.0.0.1:4555)")
	fs.Func("allowed-origins", "comma separated CORS origins for the status API", func(v string) error {
		c.AllowedOrigins = strings.Split(v, ",")
		return nil
	})
	fs.StringVar(&c.MetricsAddr, "metrics-port", c.MetricsAddr, "Prometheus metrics listen address or port (disabled when empty)")
	fs.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "redis URL for publishing device state (disabled when empty)")
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "device config file path")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log output format (console or json)")
}

// LoadFile populates the config from a YAML file. Fields already set remain
// unless overwritten by corresponding entries in the file.
func (c *DeviceConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

var serverRE = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9\-\.]*[A-Za-z0-9])?):(\d{1,5})$`)

// ParseServer splits a host:port server address. IPv6 literals are not
// accepted.
func ParseServer(s string) (string, int, error) {
	m := serverRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", 0, fmt.Errorf("server %q must be in host:port format", s)
	}
	port, _ := strconv.Atoi(m[2])
	if port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("server port %d must be between 1 and 65535", port)
	}
	return m[1], port, nil
}

// Validate checks the settings the device cannot run without.
func (c *DeviceConfig) Validate() error {
	var errs []error
	if _, _, err := ParseServer(c.Server); err != nil {
		errs = append(errs, err)
	}
	if c.Framebuffer == "" && (c.Width <= 0 || c.Height <= 0) {
		errs = append(errs, fmt.Errorf("display size %dx%d must be positive", c.Width, c.Height))
	}
	switch c.Rotation {
	case -1, 0, 90, 180, 270:
	default:
		errs = append(errs, fmt.Errorf("rotation %d must be one of 0, 90, 180, 270", c.Rotation))
	}
	if c.ColorOrder != "rgb" && c.ColorOrder != "bgr" {
		errs = append(errs, fmt.Errorf("color order %q must be rgb or bgr", c.ColorOrder))
	}
	if c.MaxMessageBytes <= 0 || c.BufferSize <= 0 || c.QueueDepth <= 0 {
		errs = append(errs, fmt.Errorf("sizes must be positive: max_message_bytes=%d buffer_size=%d queue_depth=%d", c.MaxMessageBytes, c.BufferSize, c.QueueDepth))
	}
	if c.MoveInterval < 0 {
		errs = append(errs, errors.New("move interval must not be negative"))
	}
	return errors.Join(errs...)
}
