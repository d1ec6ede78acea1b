// CoAP消息的编码与解码
package coap

import (
	"encoding/binary"
	"sort"
)

// writeBuffer 带容量检查的写缓冲区
type writeBuffer struct {
	buf []byte
	n   int
}

func (w *writeBuffer) writeByte(b byte) error {
	if w.n >= len(w.buf) {
		return ErrBufferTooSmall
	}
	w.buf[w.n] = b
	w.n++
	return nil
}

func (w *writeBuffer) write(data []byte) error {
	if w.n+len(data) > len(w.buf) {
		return ErrBufferTooSmall
	}
	copy(w.buf[w.n:], data)
	w.n += len(data)
	return nil
}

// Encode 将消息编码进目标缓冲区，返回写入的字节数
// 编码顺序固定：头部 → 消息码 → 消息ID → Token → 选项（按选项号升序，
// 同号保持加入顺序） → 负载分隔符(0xFF) → 负载
func Encode(msg *Message, buf []byte) (int, error) {
	if len(msg.Token) > MaxTokenLen {
		return 0, ErrTokenTooLong
	}
	if len(msg.Options) > MaxOptionCount {
		return 0, ErrTooManyOptions
	}

	w := &writeBuffer{buf: buf}

	// 头部第一字节：版本（高2位）+类型（中2位）+Token长度（低4位）
	first := (msg.Version&0x03)<<6 | (uint8(msg.Type)&0x03)<<4 | uint8(len(msg.Token))&0x0F
	if err := w.writeByte(first); err != nil {
		return 0, err
	}
	if err := w.writeByte(byte(msg.Code)); err != nil {
		return 0, err
	}
	var mid [2]byte
	binary.BigEndian.PutUint16(mid[:], msg.MessageID)
	if err := w.write(mid[:]); err != nil {
		return 0, err
	}
	if err := w.write(msg.Token); err != nil {
		return 0, err
	}

	// 选项按号升序排列，同号选项保持调用方的加入顺序（路径段顺序由此保证）
	opts := make([]Option, len(msg.Options))
	copy(opts, msg.Options)
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Number < opts[j].Number })

	prev := uint16(0)
	for _, opt := range opts {
		if err := encodeOption(w, opt.Number-prev, opt.Value); err != nil {
			return 0, err
		}
		prev = opt.Number
	}

	// 负载非空时先写分隔符再写负载；空负载不写分隔符
	if len(msg.Payload) > 0 {
		if err := w.writeByte(PayloadMarker); err != nil {
			return 0, err
		}
		if err := w.write(msg.Payload); err != nil {
			return 0, err
		}
	}
	return w.n, nil
}

// EncodeToBytes 编码为新分配的字节流
func EncodeToBytes(msg *Message) ([]byte, error) {
	buf := make([]byte, MaxMessageSize)
	n, err := Encode(msg, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// encodeOption 编码单个选项（delta/长度均支持13/14扩展编码）
func encodeOption(w *writeBuffer, delta uint16, value []byte) error {
	dn, de := encodeExtend(delta)
	ln, le := encodeExtend(uint16(len(value)))

	if err := w.writeByte(dn<<4 | ln); err != nil {
		return err
	}
	if err := w.write(de); err != nil {
		return err
	}
	if err := w.write(le); err != nil {
		return err
	}
	return w.write(value)
}

// encodeExtend 计算4位半字节及扩展字节
// 规则：<13直接存；13≤v<269存13加1字节扩展；v≥269存14加2字节扩展
func encodeExtend(v uint16) (uint8, []byte) {
	switch {
	case v < 13:
		return uint8(v), nil
	case v < 269:
		return 13, []byte{uint8(v - 13)}
	default:
		ext := make([]byte, 2)
		binary.BigEndian.PutUint16(ext, v-269)
		return 14, ext
	}
}

// Decode 将字节流解码为CoAP消息
// 对任意输入（含截断/损坏报文）只会返回错误，不会越界读取
func Decode(data []byte) (*Message, error) {
	if len(data) < 4 { // 头部固定4字节
		return nil, ErrPacketTooShort
	}

	msg := &Message{}
	first := data[0]
	msg.Version = (first >> 6) & 0x03
	if msg.Version != Version1 {
		return nil, ErrUnsupportedVersion
	}
	msg.Type = Type((first >> 4) & 0x03)
	tkl := int(first & 0x0F)
	if tkl > MaxTokenLen {
		return nil, ErrMalformedPacket
	}

	msg.Code = Code(data[1])
	msg.MessageID = binary.BigEndian.Uint16(data[2:4])

	offset := 4
	if offset+tkl > len(data) {
		return nil, ErrTokenTruncated
	}
	if tkl > 0 {
		msg.Token = append([]byte(nil), data[offset:offset+tkl]...)
	}
	offset += tkl

	return msg, decodeOptionsAndPayload(msg, data, offset)
}

// decodeOptionsAndPayload 解析选项序列与负载
func decodeOptionsAndPayload(msg *Message, data []byte, offset int) error {
	prev := uint16(0)
	for offset < len(data) {
		if data[offset] == PayloadMarker {
			offset++
			// 分隔符之后必须跟非空负载
			if offset >= len(data) {
				return ErrMalformedPacket
			}
			msg.Payload = append([]byte(nil), data[offset:]...)
			return nil
		}
		if len(msg.Options) >= MaxOptionCount {
			return ErrMalformedPacket
		}

		h := data[offset]
		offset++

		delta, off, err := decodeExtend((h>>4)&0x0F, data, offset)
		if err != nil {
			return err
		}
		length, off2, err := decodeExtend(h&0x0F, data, off)
		if err != nil {
			return err
		}
		offset = off2

		if offset+int(length) > len(data) {
			return ErrOptionTruncated
		}
		num := prev + delta
		prev = num
		msg.Options = append(msg.Options, Option{
			Number: num,
			Value:  append([]byte(nil), data[offset:offset+int(length)]...),
		})
		offset += int(length)
	}
	return nil
}

// decodeExtend 解析4位半字节的扩展值（13→+1字节，14→+2字节，15保留）
func decodeExtend(nibble uint8, data []byte, offset int) (uint16, int, error) {
	switch nibble {
	case 13:
		if offset >= len(data) {
			return 0, 0, ErrOptionTruncated
		}
		return 13 + uint16(data[offset]), offset + 1, nil
	case 14:
		if offset+2 > len(data) {
			return 0, 0, ErrOptionTruncated
		}
		return 269 + binary.BigEndian.Uint16(data[offset:offset+2]), offset + 2, nil
	case 15:
		return 0, 0, ErrMalformedPacket // 保留值
	default:
		return uint16(nibble), offset, nil
	}
}
