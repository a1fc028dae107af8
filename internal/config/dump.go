package config

import "github.com/gaspardpetit/rwv/internal/logx"

// DumpConfig logs the effective configuration. Unset hints are left out.
func (c *DeviceConfig) DumpConfig(deviceID string) {
	ev := logx.Log.Info().
		Str("server", c.Server).
		Str("url", c.URL).
		Str("device_id", deviceID).
		Int("width", c.Width).
		Int("height", c.Height).
		Bool("big_endian", c.BigEndian).
		Str("color_order", c.ColorOrder).
		Int("max_message_bytes", c.MaxMessageBytes).
		Int("buffer_size", c.BufferSize).
		Int("queue_depth", c.QueueDepth).
		Dur("keepalive_interval", c.KeepaliveInterval).
		Dur("move_interval", c.MoveInterval).
		Bool("accelerated_decode", c.AcceleratedDecode)
	for _, o := range []struct {
		name string
		v    int
	}{
		{"rotation", c.Rotation},
		{"tile_size", c.TileSize},
		{"full_frame_tile_count", c.FullFrameTileCount},
		{"full_frame_every", c.FullFrameEvery},
		{"every_nth_frame", c.EveryNthFrame},
		{"min_frame_interval", c.MinFrameInterval},
		{"jpeg_quality", c.JPEGQuality},
		{"max_bytes_per_msg", c.MaxBytesPerMsg},
	} {
		if o.v >= 0 {
			ev = ev.Int(o.name, o.v)
		}
	}
	if c.FullFrameAreaThreshold >= 0 {
		ev = ev.Float64("full_frame_area_threshold", c.FullFrameAreaThreshold)
	}
	if c.Framebuffer != "" {
		ev = ev.Str("framebuffer", c.Framebuffer)
	}
	if c.TouchDevice != "" {
		ev = ev.Str("touch_device", c.TouchDevice)
	}
	if c.RedisURL != "" {
		ev = ev.Str("redis_url", RedactURL(c.RedisURL))
	}
	ev.Msg("device configuration")
}
