package server

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/junbin-yang/meshlight-go/pkg/coap"
	log "github.com/junbin-yang/meshlight-go/pkg/utils/logger"
)

// Server CoAP服务端：监听UDP端口，解码请求并分发到资源注册表
type Server struct {
	registry *Registry
	conn     *net.UDPConn
	running  int32
	wg       sync.WaitGroup
}

func NewServer(registry *Registry) *Server {
	return &Server{registry: registry}
}

// Start 绑定端口并启动接收goroutine
func (s *Server) Start(port int) error {
	conn, err := coap.NewServerConn(port)
	if err != nil {
		return err
	}
	s.conn = conn

	atomic.StoreInt32(&s.running, 1)
	s.wg.Add(1)
	go s.readLoop()

	log.Infof("[SERVER] coap server listening on %s", conn.LocalAddr())
	return nil
}

// Addr 返回服务端监听地址（未启动时为nil）
func (s *Server) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Stop 停止接收并关闭socket，最多等待2秒让goroutine退出
func (s *Server) Stop() {
	atomic.StoreInt32(&s.running, 0)
	if s.conn != nil {
		_ = s.conn.Close()
	}

	done := make(chan struct{})
	go func() { s.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func (s *Server) readLoop() {
	defer s.wg.Done()

	buf := make([]byte, coap.MaxMessageSize)
	for atomic.LoadInt32(&s.running) == 1 {
		n, src, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if atomic.LoadInt32(&s.running) == 0 {
				return
			}
			log.Warn("[SERVER] recv failed", log.GetError(err))
			continue
		}
		if n <= 0 {
			continue
		}
		s.handlePacket(buf[:n], src)
	}
}

// handlePacket 处理单个数据报：解码→分发→编码→回复。
// 解码失败的报文记录后丢弃；处理函数的任何失败都不会中断接收循环
func (s *Server) handlePacket(data []byte, src *net.UDPAddr) {
	req, err := coap.Decode(data)
	if err != nil {
		log.Warnf("[SERVER] drop malformed packet from %v: %v", src, err)
		return
	}

	log.Debugf("[SERVER] ver=%d type=%d code=0x%02x msgId=%d tokenLen=%d path=%v payloadLen=%d",
		req.Version, req.Type, uint8(req.Code), req.MessageID, len(req.Token),
		req.PathSegments(), len(req.Payload))

	resp := s.registry.Dispatch(req, src)

	out, err := coap.EncodeToBytes(resp)
	if err != nil {
		log.Error("[SERVER] encode response failed", log.GetError(err))
		return
	}
	if _, err := s.conn.WriteToUDP(out, src); err != nil {
		log.Error("[SERVER] send response failed", log.GetError(err))
	}
}
