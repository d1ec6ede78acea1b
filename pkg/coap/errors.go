package coap

import "errors"

// 编解码错误定义
var (
	ErrBufferTooSmall     = errors.New("encode buffer too small")
	ErrTokenTooLong       = errors.New("token exceeds 8 bytes")
	ErrTooManyOptions     = errors.New("too many options")
	ErrPacketTooShort     = errors.New("packet shorter than 4 byte header")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrTokenTruncated     = errors.New("token truncated")
	ErrOptionTruncated    = errors.New("option truncated")
	ErrMalformedPacket    = errors.New("malformed packet")
)

// 传输错误定义
var (
	ErrAddressInvalid = errors.New("invalid address")
	ErrConnectFailed  = errors.New("connect failed")
	ErrBindFailed     = errors.New("bind failed")
	ErrSessionClosed  = errors.New("session closed")
	ErrConnClosed     = errors.New("connection closed by peer")
)
