package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gaspardpetit/rwv/internal/config"
	"github.com/gaspardpetit/rwv/internal/device"
	"github.com/gaspardpetit/rwv/internal/display"
	"github.com/gaspardpetit/rwv/internal/display/fbdev"
	"github.com/gaspardpetit/rwv/internal/logx"
	"github.com/gaspardpetit/rwv/internal/metrics"
	"github.com/gaspardpetit/rwv/internal/touch"
	"github.com/gaspardpetit/rwv/internal/touch/evdev"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	var cfg config.DeviceConfig
	cfg.BindFlags()
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "rwv-device version=%s sha=%s date=%s\n\n", version, buildSHA, buildDate)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Printf("rwv-device version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}

	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logx.Log.Fatal().Err(err).Str("path", cfg.ConfigFile).Msg("load config")
		}
	}
	logx.Configure(cfg.LogLevel, strings.EqualFold(cfg.LogFormat, "json"))
	if err := cfg.Validate(); err != nil {
		logx.Log.Fatal().Err(err).Msg("invalid configuration")
	}

	device.SetBuildInfo(version, buildSHA, buildDate)
	metrics.SetBuildInfo(version, buildSHA, buildDate)

	var surface display.Surface
	var closer func() error
	if cfg.Framebuffer != "" {
		fb, err := fbdev.Open(cfg.Framebuffer)
		if err != nil {
			logx.Log.Fatal().Err(err).Msg("display unavailable")
		}
		closer = fb.Close
		defer func() { _ = fb.Close() }()
		surface = fb
	} else {
		logx.Log.Warn().Int("width", cfg.Width).Int("height", cfg.Height).Msg("no framebuffer configured; rendering to memory")
		surface = display.NewFramebuffer(cfg.Width, cfg.Height)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logx.Log.Warn().Msg("termination requested")
		device.SetState("terminating")
		cancel()
	}()

	d := device.New(cfg, surface)
	cfg.DumpConfig(d.ID())

	var events chan touch.Event
	if cfg.TouchDevice != "" {
		events = make(chan touch.Event, 16)
		src := evdev.NewSource(cfg.TouchDevice, evdev.Options{
			MaxX:   cfg.TouchMaxX,
			MaxY:   cfg.TouchMaxY,
			Width:  surface.Width(),
			Height: surface.Height(),
		})
		go func() {
			if err := src.Run(ctx, events); err != nil && ctx.Err() == nil {
				logx.Log.Error().Err(err).Msg("touch input stopped")
			}
		}()
	}

	if err := d.Run(ctx, events); err != nil {
		logx.Log.Error().Err(err).Msg("device stopped")
		cancel()
		if closer != nil {
			_ = closer()
		}
		os.Exit(1)
	}
}
