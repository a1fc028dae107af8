package config

import (
	"net/url"
	"strconv"
	"strings"
)

type query struct{ b strings.Builder }

func (q *query) sep() {
	if q.b.Len() == 0 {
		q.b.WriteByte('?')
	} else {
		q.b.WriteByte('&')
	}
}

func (q *query) addStr(k, v string) {
	if v == "" {
		return
	}
	q.sep()
	q.b.WriteString(k)
	q.b.WriteByte('=')
	q.b.WriteString(url.QueryEscape(v))
}

func (q *query) addInt(k string, v int) {
	if v < 0 {
		return
	}
	q.sep()
	q.b.WriteString(k)
	q.b.WriteByte('=')
	q.b.WriteString(strconv.Itoa(v))
}

func (q *query) addFloat(k string, v float64) {
	if v < 0 {
		return
	}
	q.sep()
	q.b.WriteString(k)
	q.b.WriteByte('=')
	q.b.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
}

// BuildURI returns the websocket URI announcing this device and its
// rendering preferences. Keys appear in a fixed order; unset (negative)
// values are omitted.
func (c *DeviceConfig) BuildURI(deviceID string, width, height int) string {
	host, port, err := ParseServer(c.Server)
	if err != nil {
		host, port = c.Server, 0
	}
	var q query
	q.addStr("id", deviceID)
	q.addInt("w", width)
	q.addInt("h", height)
	q.addInt("r", c.Rotation)
	q.addInt("ts", c.TileSize)
	q.addInt("fftc", c.FullFrameTileCount)
	q.addFloat("ffat", c.FullFrameAreaThreshold)
	q.addInt("ffe", c.FullFrameEvery)
	q.addInt("enf", c.EveryNthFrame)
	q.addInt("mfi", c.MinFrameInterval)
	q.addInt("q", c.JPEGQuality)
	q.addInt("mbpm", c.MaxBytesPerMsg)
	base := "ws://" + host
	if port > 0 {
		base += ":" + strconv.Itoa(port)
	}
	return base + "/" + q.b.String()
}
