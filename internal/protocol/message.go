package protocol

// Message is any decoded wire message.
type Message interface {
	Type() MsgType
}

// PeekType returns the leading type byte of b without validating anything
// else. An empty buffer yields MsgUnknown.
func PeekType(b []byte) MsgType {
	if len(b) == 0 {
		return MsgUnknown
	}
	return MsgType(b[0])
}

// Decode decodes b according to its leading type byte. Unknown types and
// version mismatches are rejected before any field is read.
func Decode(b []byte) (Message, error) {
	switch PeekType(b) {
	case MsgFrame:
		return ParseFrame(b)
	case MsgTouch:
		return DecodeTouch(b)
	case MsgFrameStats:
		return DecodeFrameStats(b)
	case MsgOpenURL:
		return DecodeOpenURL(b)
	case MsgKeepalive:
		return DecodeKeepalive(b)
	default:
		if len(b) == 0 {
			return nil, newError(ErrCodeTruncated, "empty message")
		}
		return nil, newError(ErrCodeBadType, "unknown type %d", b[0])
	}
}

// Size returns the encoded size of m.
func Size(m Message) int {
	switch v := m.(type) {
	case Frame:
		return FrameSize(v.Tiles)
	case Touch:
		return TouchSize
	case FrameStats:
		if v.Request {
			return FrameStatsRequestSize
		}
		return FrameStatsSize
	case OpenURL:
		return OpenURLSize(v.URL)
	case Keepalive:
		return KeepaliveSize
	default:
		return 0
	}
}

// Put encodes m into dst. Nothing is written when dst is too small.
func Put(dst []byte, m Message) (int, error) {
	switch v := m.(type) {
	case Frame:
		return PutFrame(dst, v.Header, v.Tiles)
	case Touch:
		return PutTouch(dst, v)
	case FrameStats:
		return PutFrameStats(dst, v)
	case OpenURL:
		return PutOpenURL(dst, v)
	case Keepalive:
		return PutKeepalive(dst)
	default:
		return 0, newError(ErrCodeBadType, "cannot encode %T", m)
	}
}

// Marshal allocates an exactly sized packet for m.
func Marshal(m Message) ([]byte, error) {
	buf := make([]byte, Size(m))
	n, err := Put(buf, m)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
