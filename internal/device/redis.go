package device

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gaspardpetit/rwv/internal/logx"
)

const (
	redisKeyPrefix       = "rwv:device:"
	defaultMirrorPeriod  = 5 * time.Second
	mirrorTTLMultiplier  = 3
	mirrorShutdownPeriod = 2 * time.Second
)

// Mirror publishes the device state to redis so a fleet can be watched from
// one place. Entries expire when a device stops publishing.
type Mirror struct {
	client redis.UniversalClient
	key    string
	period time.Duration
}

// NewMirror connects to the given redis URL.
func NewMirror(ctx context.Context, addr, deviceID string) (*Mirror, error) {
	opts, err := parseRedisURL(addr)
	if err != nil {
		return nil, err
	}
	c := redis.NewUniversalClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Mirror{client: c, key: redisKeyPrefix + deviceID, period: defaultMirrorPeriod}, nil
}

// parseRedisURL parses addr into UniversalOptions supporting single, cluster,
// and sentinel Redis deployments. If no scheme is present, addr is treated as
// a plain host:port string.
func parseRedisURL(addr string) (*redis.UniversalOptions, error) {
	if !strings.Contains(addr, "://") {
		return &redis.UniversalOptions{Addrs: []string{addr}}, nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	opts := &redis.UniversalOptions{}
	if u.User != nil {
		opts.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			opts.Password = pw
		}
	}
	opts.Addrs = strings.Split(u.Host, ",")

	q := u.Query()
	db := func(s string) error {
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("redis: invalid db: %v", err)
		}
		opts.DB = n
		return nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	switch u.Scheme {
	case "redis", "rediss":
		path := strings.TrimPrefix(u.Path, "/")
		if path == "" {
			path = q.Get("db")
		}
		if err := db(path); err != nil {
			return nil, err
		}
		if u.Scheme == "rediss" {
			opts.TLSConfig = tlsCfg
		}
	case "redis-sentinel", "rediss-sentinel":
		opts.MasterName = strings.TrimPrefix(u.Path, "/")
		if err := db(q.Get("db")); err != nil {
			return nil, err
		}
		opts.SentinelUsername = q.Get("sentinel_username")
		opts.SentinelPassword = q.Get("sentinel_password")
		if u.Scheme == "rediss-sentinel" {
			opts.TLSConfig = tlsCfg
		}
	default:
		return nil, fmt.Errorf("redis: invalid URL scheme: %s", u.Scheme)
	}
	return opts, nil
}

// Publish stores the current state.
func (m *Mirror) Publish(ctx context.Context, st State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return m.client.Set(ctx, m.key, b, m.period*mirrorTTLMultiplier).Err()
}

// Run publishes on every period until ctx is done, then publishes a final
// stopped state and closes the client.
func (m *Mirror) Run(ctx context.Context) {
	t := time.NewTicker(m.period)
	defer t.Stop()
	m.publish(ctx, snapshot())
	for {
		select {
		case <-ctx.Done():
			st := snapshot()
			st.State = "stopped"
			st.ConnectedToServer = false
			sctx, cancel := context.WithTimeout(context.Background(), mirrorShutdownPeriod)
			m.publish(sctx, st)
			cancel()
			_ = m.client.Close()
			return
		case <-t.C:
			m.publish(ctx, snapshot())
		}
	}
}

func (m *Mirror) publish(ctx context.Context, st State) {
	if err := m.Publish(ctx, st); err != nil {
		logx.Log.Debug().Err(err).Str("key", m.key).Msg("redis publish failed")
	}
}
