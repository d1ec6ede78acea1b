package coap

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
)

var (
	msgIDMu sync.Mutex
	msgID   uint16
)

// InitMessageID 初始化消息ID发生器，起始值随机（降低重启后与在途报文冲突的概率）
func InitMessageID() {
	msgIDMu.Lock()
	defer msgIDMu.Unlock()

	var seed [2]byte
	if _, err := rand.Read(seed[:]); err == nil {
		msgID = binary.BigEndian.Uint16(seed[:])
	} else {
		msgID = 0
	}
}

// NextMessageID 返回下一个消息ID（自增，跳过0）
func NextMessageID() uint16 {
	msgIDMu.Lock()
	defer msgIDMu.Unlock()

	msgID++
	if msgID == 0 {
		msgID++
	}
	return msgID
}

// NextToken 生成8字节随机Token，用于关联请求与响应
func NextToken() []byte {
	token := make([]byte, MaxTokenLen)
	if _, err := rand.Read(token); err != nil {
		// 随机源不可用时退化为消息ID填充，保证Token仍然唯一递增
		binary.BigEndian.PutUint16(token, NextMessageID())
	}
	return token
}
