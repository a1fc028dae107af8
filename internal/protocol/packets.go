package protocol

import "encoding/binary"

// Touch is a pointer event sent from the device to the server.
type Touch struct {
	Kind      TouchType
	PointerID uint8
	X, Y      uint16
}

func (Touch) Type() MsgType { return MsgTouch }

// PutTouch encodes t into dst.
func PutTouch(dst []byte, t Touch) (int, error) {
	if len(dst) < TouchSize {
		return 0, newError(ErrCodeShortBuffer, "touch needs %d bytes, have %d", TouchSize, len(dst))
	}
	putHeader(dst, MsgTouch)
	dst[2] = byte(t.Kind)
	dst[3] = t.PointerID
	binary.LittleEndian.PutUint16(dst[4:6], t.X)
	binary.LittleEndian.PutUint16(dst[6:8], t.Y)
	return TouchSize, nil
}

// DecodeTouch decodes a Touch packet.
func DecodeTouch(b []byte) (Touch, error) {
	if err := checkHeader(b, MsgTouch, TouchSize); err != nil {
		return Touch{}, err
	}
	return Touch{
		Kind:      TouchType(b[2]),
		PointerID: b[3],
		X:         binary.LittleEndian.Uint16(b[4:6]),
		Y:         binary.LittleEndian.Uint16(b[6:8]),
	}, nil
}

// OpenURL asks the receiving side to switch the displayed content. The same
// shape is used in both directions.
type OpenURL struct {
	Flags uint16
	URL   string
}

func (OpenURL) Type() MsgType { return MsgOpenURL }

// OpenURLSize returns the encoded size of an OpenURL packet for url.
func OpenURLSize(url string) int { return OpenURLHeaderSize + len(url) }

// PutOpenURL encodes u into dst. The URL is written raw, without terminator.
func PutOpenURL(dst []byte, u OpenURL) (int, error) {
	if uint64(len(u.URL)) > 0xFFFFFFFF {
		return 0, newError(ErrCodeTooLarge, "url of %d bytes", len(u.URL))
	}
	n := OpenURLSize(u.URL)
	if len(dst) < n {
		return 0, newError(ErrCodeShortBuffer, "open_url needs %d bytes, have %d", n, len(dst))
	}
	putHeader(dst, MsgOpenURL)
	binary.LittleEndian.PutUint16(dst[2:4], u.Flags)
	binary.LittleEndian.PutUint32(dst[4:8], uint32(len(u.URL)))
	copy(dst[OpenURLHeaderSize:], u.URL)
	return n, nil
}

// DecodeOpenURL decodes an OpenURL packet.
func DecodeOpenURL(b []byte) (OpenURL, error) {
	if err := checkHeader(b, MsgOpenURL, OpenURLHeaderSize); err != nil {
		return OpenURL{}, err
	}
	n := binary.LittleEndian.Uint32(b[4:8])
	if uint64(OpenURLHeaderSize)+uint64(n) > uint64(len(b)) {
		return OpenURL{}, newError(ErrCodeTruncated, "url of %d bytes exceeds %d", n, len(b)-OpenURLHeaderSize)
	}
	return OpenURL{
		Flags: binary.LittleEndian.Uint16(b[2:4]),
		URL:   string(b[OpenURLHeaderSize : OpenURLHeaderSize+int(n)]),
	}, nil
}

// FrameStats carries the render time report. With Request set it is the
// header-only form the server sends to ask for a report.
type FrameStats struct {
	AvgTimeMs uint32
	Bytes     uint32
	Request   bool
}

func (FrameStats) Type() MsgType { return MsgFrameStats }

// PutFrameStats encodes s into dst.
func PutFrameStats(dst []byte, s FrameStats) (int, error) {
	if s.Request {
		return PutFrameStatsRequest(dst)
	}
	if len(dst) < FrameStatsSize {
		return 0, newError(ErrCodeShortBuffer, "frame_stats needs %d bytes, have %d", FrameStatsSize, len(dst))
	}
	putHeader(dst, MsgFrameStats)
	binary.LittleEndian.PutUint32(dst[2:6], s.AvgTimeMs)
	binary.LittleEndian.PutUint32(dst[6:10], s.Bytes)
	return FrameStatsSize, nil
}

// PutFrameStatsRequest encodes the header-only FrameStats request.
func PutFrameStatsRequest(dst []byte) (int, error) {
	if len(dst) < FrameStatsRequestSize {
		return 0, newError(ErrCodeShortBuffer, "frame_stats request needs %d bytes, have %d", FrameStatsRequestSize, len(dst))
	}
	putHeader(dst, MsgFrameStats)
	return FrameStatsRequestSize, nil
}

// DecodeFrameStats decodes either form of FrameStats.
func DecodeFrameStats(b []byte) (FrameStats, error) {
	if err := checkHeader(b, MsgFrameStats, FrameStatsRequestSize); err != nil {
		return FrameStats{}, err
	}
	if len(b) == FrameStatsRequestSize {
		return FrameStats{Request: true}, nil
	}
	if len(b) < FrameStatsSize {
		return FrameStats{}, newError(ErrCodeTruncated, "frame_stats: %d bytes, need %d", len(b), FrameStatsSize)
	}
	return FrameStats{
		AvgTimeMs: binary.LittleEndian.Uint32(b[2:6]),
		Bytes:     binary.LittleEndian.Uint32(b[6:10]),
	}, nil
}

// Keepalive is the periodic liveness packet sent by the device.
type Keepalive struct{}

func (Keepalive) Type() MsgType { return MsgKeepalive }

// PutKeepalive encodes a keepalive into dst.
func PutKeepalive(dst []byte) (int, error) {
	if len(dst) < KeepaliveSize {
		return 0, newError(ErrCodeShortBuffer, "keepalive needs %d bytes, have %d", KeepaliveSize, len(dst))
	}
	putHeader(dst, MsgKeepalive)
	return KeepaliveSize, nil
}

// DecodeKeepalive validates a keepalive packet.
func DecodeKeepalive(b []byte) (Keepalive, error) {
	if err := checkHeader(b, MsgKeepalive, KeepaliveSize); err != nil {
		return Keepalive{}, err
	}
	return Keepalive{}, nil
}
