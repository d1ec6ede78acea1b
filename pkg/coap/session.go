// UDP传输会话：客户端到固定对端的连接与服务端监听socket
package coap

import (
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/junbin-yang/meshlight-go/pkg/utils/logger"
	"golang.org/x/net/ipv6"
)

// HopLimitValue 服务端socket默认跳数
const HopLimitValue = 64

// Session 到固定对端的UDP会话（客户端使用）
// 同一时刻最多存在一个会话，由调用方（序列执行器）独占持有
type Session struct {
	mu     sync.Mutex
	conn   *net.UDPConn
	peer   *net.UDPAddr
	closed bool
}

// OpenSession 创建到指定对端的UDP会话
func OpenSession(addr string, port int) (*Session, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return nil, ErrAddressInvalid
	}

	peer := &net.UDPAddr{IP: ip, Port: port}
	conn, err := net.DialUDP("udp", nil, peer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	return &Session{conn: conn, peer: peer}, nil
}

// Peer 返回会话对端地址
func (s *Session) Peer() *net.UDPAddr {
	return s.peer
}

// Send 向对端发送一个数据报
func (s *Session) Send(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}
	return s.conn.Write(data)
}

// TryRecv 非阻塞接收：当前无数据报时返回(nil, nil)，
// 对端关闭（零长度读取）返回ErrConnClosed，其余错误原样上抛
func (s *Session) TryRecv(maxLen int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	// 截止时间设为当前时刻，使Read立即返回，以超时错误表达"无数据"
	if err := s.conn.SetReadDeadline(time.Now()); err != nil {
		return nil, err
	}

	buf := make([]byte, maxLen)
	n, err := s.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, ErrConnClosed
	}
	return buf[:n], nil
}

// Close 关闭会话。可重复调用；底层关闭失败仅记录日志
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if err := s.conn.Close(); err != nil {
		log.Warn("[SESSION] close failed", log.GetError(err))
	}
}

// NewServerConn 创建并绑定CoAP服务端UDP socket
func NewServerConn(port int) (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBindFailed, err)
	}

	// mesh网络为IPv6链路，调整跳数并禁用组播回环（本机不收自己发出的组播包）
	pc := ipv6.NewPacketConn(conn)
	if err := pc.SetHopLimit(HopLimitValue); err != nil {
		log.Warn("[SESSION] set hop limit failed", log.GetError(err))
	}
	if err := pc.SetMulticastLoopback(false); err != nil {
		log.Warn("[SESSION] disable multicast loopback failed", log.GetError(err))
	}
	return conn, nil
}
