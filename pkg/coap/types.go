// CoAP消息结构与协议常量定义
package coap

// Version1 CoAP协议版本（仅支持v1，符合RFC 7252标准）
const Version1 = 1

// Type 消息类型
type Type uint8

const (
	TypeConfirmable    Type = 0 // 确认型消息（CON）：需接收方回复ACK
	TypeNonConfirmable Type = 1 // 非确认型消息（NON）：无需回复
	TypeAck            Type = 2 // 确认消息（ACK）：用于回复CON类型消息
	TypeReset          Type = 3 // 重置消息（RST）
)

// Code 消息码（请求时为方法码，响应时为状态码）
type Code uint8

// 请求方法码
const (
	CodeGet    Code = 1
	CodePost   Code = 2
	CodePut    Code = 3
	CodeDelete Code = 4
)

// 响应状态码（高3位为类别，低5位为明细，如2.05=0x45）
const (
	CodeCreated          Code = 0x41 // 2.01
	CodeDeleted          Code = 0x42 // 2.02
	CodeValid            Code = 0x43 // 2.03
	CodeChanged          Code = 0x44 // 2.04
	CodeContent          Code = 0x45 // 2.05
	CodeBadRequest       Code = 0x80 // 4.00
	CodeNotFound         Code = 0x84 // 4.04
	CodeMethodNotAllowed Code = 0x85 // 4.05
	CodeInternalError    Code = 0xA0 // 5.00
)

// 选项号（对应RFC 7252定义）
const (
	OptionUriPath       = 11 // Uri-Path：资源路径段（每段一个选项）
	OptionContentFormat = 12 // Content-Format：负载数据格式
)

// ContentFormatText 文本格式负载（text/plain）
const ContentFormatText = 0

// PayloadMarker 负载分隔符（固定为0xFF）
const PayloadMarker = 0xFF

const (
	MaxMessageSize = 256 // 单条消息最大字节数
	MaxTokenLen    = 8   // Token最大8字节（RFC规定）
	MaxOptionCount = 16  // 单条消息最大选项数量
	DefaultPort    = 5683
)

// Option 表示一个CoAP选项（选项号+选项值）
type Option struct {
	Number uint16
	Value  []byte
}

// Message 表示一条完整的CoAP消息
type Message struct {
	Version   uint8
	Type      Type
	Code      Code
	MessageID uint16
	Token     []byte   // 0~8字节，关联请求与响应
	Options   []Option // 按选项号升序排列（同号保持加入顺序）
	Payload   []byte   // 可选负载，编码时前置0xFF分隔符
}

// NewRequest 构造一条请求消息（自动分配消息ID和Token）
func NewRequest(t Type, code Code, path []string) *Message {
	return &Message{
		Version:   Version1,
		Type:      t,
		Code:      code,
		MessageID: NextMessageID(),
		Token:     NextToken(),
		Options:   PathOptions(path),
	}
}

// ResponseType 根据请求类型推导响应类型：CON请求回ACK，其余回NON
func ResponseType(req Type) Type {
	if req == TypeConfirmable {
		return TypeAck
	}
	return TypeNonConfirmable
}

// PathOptions 将路径段序列转换为Uri-Path选项序列（保持段顺序）
func PathOptions(segments []string) []Option {
	opts := make([]Option, 0, len(segments))
	for _, seg := range segments {
		opts = append(opts, Option{Number: OptionUriPath, Value: []byte(seg)})
	}
	return opts
}

// PathSegments 提取消息中的Uri-Path选项，按出现顺序还原为路径段
func (m *Message) PathSegments() []string {
	var segs []string
	for _, opt := range m.Options {
		if opt.Number == OptionUriPath {
			segs = append(segs, string(opt.Value))
		}
	}
	return segs
}

// AddOption 追加一个选项
func (m *Message) AddOption(number uint16, value []byte) {
	m.Options = append(m.Options, Option{Number: number, Value: value})
}
