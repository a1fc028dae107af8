package protocol

// Version is the only protocol version understood by the device.
const Version uint8 = 1

// MsgType is the leading byte of every message.
type MsgType uint8

const (
	MsgUnknown    MsgType = 0
	MsgFrame      MsgType = 1
	MsgTouch      MsgType = 2
	MsgFrameStats MsgType = 3
	MsgOpenURL    MsgType = 4
	MsgKeepalive  MsgType = 5
)

// String returns the name of the message type.
func (t MsgType) String() string {
	switch t {
	case MsgFrame:
		return "frame"
	case MsgTouch:
		return "touch"
	case MsgFrameStats:
		return "frame_stats"
	case MsgOpenURL:
		return "open_url"
	case MsgKeepalive:
		return "keepalive"
	default:
		return "unknown"
	}
}

// Encoding identifies how tile payloads in a frame are compressed.
// Only EncodingJPEG is rendered; the other tags are reserved.
type Encoding uint8

const (
	EncodingUnknown   Encoding = 0
	EncodingPNG       Encoding = 1
	EncodingJPEG      Encoding = 2
	EncodingRAW565    Encoding = 3
	EncodingRAW565RLE Encoding = 4
	EncodingRAW565LZ4 Encoding = 5
)

func (e Encoding) String() string {
	switch e {
	case EncodingPNG:
		return "png"
	case EncodingJPEG:
		return "jpeg"
	case EncodingRAW565:
		return "raw565"
	case EncodingRAW565RLE:
		return "raw565_rle"
	case EncodingRAW565LZ4:
		return "raw565_lz4"
	default:
		return "unknown"
	}
}

// TouchType is the subtype carried by a Touch packet.
type TouchType uint8

const (
	TouchUnknown TouchType = 0
	TouchDown    TouchType = 1
	TouchMove    TouchType = 2
	TouchUp      TouchType = 3
)

// Frame header flags.
const (
	FlagLastOfFrame uint16 = 1 << 0
	FlagFullFrame   uint16 = 1 << 1
)

// Wire sizes in bytes.
const (
	// type + version, shared by every message
	BaseHeaderSize = 2

	// [type:1][ver:1][frame_id:4][enc:1][tile_count:2][flags:2]
	FrameHeaderSize = 11
	// [x:2][y:2][w:2][h:2][len:4]
	TileHeaderSize = 12
	// [type:1][ver:1][subtype:1][pointer_id:1][x:2][y:2]
	TouchSize = 8
	// [type:1][ver:1][flags:2][url_len:4]
	OpenURLHeaderSize = 8
	// [type:1][ver:1][avg_time_ms:4][bytes:4]
	FrameStatsSize = 10
	// header-only FrameStats asks the device for a report
	FrameStatsRequestSize = BaseHeaderSize
	KeepaliveSize         = BaseHeaderSize
)
