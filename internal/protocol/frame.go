package protocol

import "encoding/binary"

// FrameHeader is the fixed part of a Frame message.
type FrameHeader struct {
	FrameID   uint32
	Encoding  Encoding
	TileCount uint16
	Flags     uint16
}

// IsLastOfFrame reports whether this message completes its frame.
func (h FrameHeader) IsLastOfFrame() bool { return h.Flags&FlagLastOfFrame != 0 }

// IsFullFrame reports the full-frame bit. The device carries it but does
// not act on it.
func (h FrameHeader) IsFullFrame() bool { return h.Flags&FlagFullFrame != 0 }

// TileHeader describes one tile and the length of its payload.
type TileHeader struct {
	X, Y, W, H uint16
	Len        uint32
}

// Tile is a tile header plus its payload. Payload aliases the message buffer.
type Tile struct {
	TileHeader
	Payload []byte
}

// Frame is a fully parsed Frame message.
type Frame struct {
	Header FrameHeader
	Tiles  []Tile
}

// Type implements Message.
func (Frame) Type() MsgType { return MsgFrame }

// checkHeader validates the leading type and version bytes before anything
// else in b is interpreted, then checks the fixed size.
func checkHeader(b []byte, want MsgType, size int) error {
	if len(b) < BaseHeaderSize {
		return newError(ErrCodeTruncated, "%d bytes, need %d", len(b), BaseHeaderSize)
	}
	if MsgType(b[0]) != want {
		return newError(ErrCodeBadType, "got type %d, want %s", b[0], want)
	}
	if b[1] != Version {
		return newError(ErrCodeBadVersion, "got version %d, want %d", b[1], Version)
	}
	if len(b) < size {
		return newError(ErrCodeTruncated, "%s: %d bytes, need %d", want, len(b), size)
	}
	return nil
}

func putHeader(dst []byte, t MsgType) {
	dst[0] = byte(t)
	dst[1] = Version
}

// ParseFrameHeader reads the fixed frame header and returns the offset of
// the first tile header.
func ParseFrameHeader(b []byte) (FrameHeader, int, error) {
	if err := checkHeader(b, MsgFrame, FrameHeaderSize); err != nil {
		return FrameHeader{}, 0, err
	}
	h := FrameHeader{
		FrameID:   binary.LittleEndian.Uint32(b[2:6]),
		Encoding:  Encoding(b[6]),
		TileCount: binary.LittleEndian.Uint16(b[7:9]),
		Flags:     binary.LittleEndian.Uint16(b[9:11]),
	}
	return h, FrameHeaderSize, nil
}

// ParseTileHeader reads the tile header at off and returns the offset of its
// payload. It does not check that the payload fits; ParseFrame does.
func ParseTileHeader(b []byte, off int) (TileHeader, int, error) {
	if off < 0 || off > len(b) || len(b)-off < TileHeaderSize {
		return TileHeader{}, 0, newError(ErrCodeTruncated, "tile header at %d of %d", off, len(b))
	}
	th := b[off : off+TileHeaderSize]
	h := TileHeader{
		X:   binary.LittleEndian.Uint16(th[0:2]),
		Y:   binary.LittleEndian.Uint16(th[2:4]),
		W:   binary.LittleEndian.Uint16(th[4:6]),
		H:   binary.LittleEndian.Uint16(th[6:8]),
		Len: binary.LittleEndian.Uint32(th[8:12]),
	}
	return h, off + TileHeaderSize, nil
}

// ParseFrame parses a complete Frame message. If any tile header or payload
// would read past b, the whole parse fails and no tiles are returned.
// Bytes after the last tile are ignored.
func ParseFrame(b []byte) (Frame, error) {
	h, off, err := ParseFrameHeader(b)
	if err != nil {
		return Frame{}, err
	}
	n := int(h.TileCount)
	if room := (len(b) - off) / TileHeaderSize; n > room {
		// cannot possibly fit; avoid sizing the slice from the wire
		return Frame{}, newError(ErrCodeTruncated, "%d tiles declared, room for at most %d", n, room)
	}
	tiles := make([]Tile, 0, n)
	for i := 0; i < n; i++ {
		th, p, err := ParseTileHeader(b, off)
		if err != nil {
			return Frame{}, err
		}
		end := uint64(p) + uint64(th.Len)
		if end > uint64(len(b)) {
			return Frame{}, newError(ErrCodeTruncated, "tile %d payload of %d bytes at %d exceeds %d", i, th.Len, p, len(b))
		}
		tiles = append(tiles, Tile{TileHeader: th, Payload: b[p:end:end]})
		off = int(end)
	}
	return Frame{Header: h, Tiles: tiles}, nil
}

// FrameSize returns the encoded size of a frame carrying tiles.
func FrameSize(tiles []Tile) int {
	n := FrameHeaderSize
	for _, t := range tiles {
		n += TileHeaderSize + len(t.Payload)
	}
	return n
}

// PutFrame encodes a frame into dst. TileCount and each tile's Len are taken
// from tiles rather than the header. Nothing is written if dst is too small.
func PutFrame(dst []byte, h FrameHeader, tiles []Tile) (int, error) {
	if len(tiles) > 0xFFFF {
		return 0, newError(ErrCodeTooLarge, "%d tiles", len(tiles))
	}
	n := FrameSize(tiles)
	if len(dst) < n {
		return 0, newError(ErrCodeShortBuffer, "frame needs %d bytes, have %d", n, len(dst))
	}
	putHeader(dst, MsgFrame)
	binary.LittleEndian.PutUint32(dst[2:6], h.FrameID)
	dst[6] = byte(h.Encoding)
	binary.LittleEndian.PutUint16(dst[7:9], uint16(len(tiles)))
	binary.LittleEndian.PutUint16(dst[9:11], h.Flags)
	off := FrameHeaderSize
	for _, t := range tiles {
		th := dst[off : off+TileHeaderSize]
		binary.LittleEndian.PutUint16(th[0:2], t.X)
		binary.LittleEndian.PutUint16(th[2:4], t.Y)
		binary.LittleEndian.PutUint16(th[4:6], t.W)
		binary.LittleEndian.PutUint16(th[6:8], t.H)
		binary.LittleEndian.PutUint32(th[8:12], uint32(len(t.Payload)))
		off += TileHeaderSize
		off += copy(dst[off:], t.Payload)
	}
	return n, nil
}
