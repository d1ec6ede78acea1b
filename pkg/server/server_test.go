package server

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/junbin-yang/meshlight-go/pkg/coap"
)

// 端到端测试：真实UDP链路上完成一次GET与一次PUT交互
func TestServer_EndToEnd(t *testing.T) {
	reg, state := newLightRegistry()
	srv := NewServer(reg)
	if err := srv.Start(0); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer srv.Stop()

	port := srv.Addr().(*net.UDPAddr).Port
	sess, err := coap.OpenSession("127.0.0.1", port)
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}
	defer sess.Close()

	// PUT "1"
	reply := exchange(t, sess, coap.CodePut, LightStatePath, []byte("1"))
	if reply.Code != coap.CodeChanged {
		t.Fatalf("PUT: expected 2.04, got 0x%02x", uint8(reply.Code))
	}
	if !state.Get() {
		t.Fatal("state must be on after PUT")
	}

	// GET
	reply = exchange(t, sess, coap.CodeGet, LightStatePath, nil)
	if reply.Code != coap.CodeContent {
		t.Fatalf("GET: expected 2.05, got 0x%02x", uint8(reply.Code))
	}
	if !bytes.Equal(reply.Payload, []byte("1")) {
		t.Fatalf("GET: expected payload \"1\", got %q", reply.Payload)
	}
}

// 畸形报文不应影响后续正常请求
func TestServer_MalformedPacketIgnored(t *testing.T) {
	reg, _ := newLightRegistry()
	srv := NewServer(reg)
	if err := srv.Start(0); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer srv.Stop()

	port := srv.Addr().(*net.UDPAddr).Port
	sess, err := coap.OpenSession("127.0.0.1", port)
	if err != nil {
		t.Fatalf("OpenSession failed: %v", err)
	}
	defer sess.Close()

	// 发送垃圾字节，服务端应丢弃且不回复、不退出
	if _, err := sess.Send([]byte{0xFF, 0x00, 0x01}); err != nil {
		t.Fatalf("Send garbage failed: %v", err)
	}

	reply := exchange(t, sess, coap.CodeGet, LightStatePath, nil)
	if reply.Code != coap.CodeContent {
		t.Fatalf("server stopped answering after malformed packet: 0x%02x", uint8(reply.Code))
	}
}

// exchange 发送一条请求并等待响应
func exchange(t *testing.T, sess *coap.Session, code coap.Code, path []string, payload []byte) *coap.Message {
	t.Helper()

	msg := coap.NewRequest(coap.TypeConfirmable, code, path)
	msg.Payload = payload
	data, err := coap.EncodeToBytes(msg)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := sess.Send(data); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		raw, err := sess.TryRecv(coap.MaxMessageSize)
		if err != nil {
			t.Fatalf("TryRecv failed: %v", err)
		}
		if raw != nil {
			reply, err := coap.Decode(raw)
			if err != nil {
				t.Fatalf("Decode reply failed: %v", err)
			}
			if !bytes.Equal(reply.Token, msg.Token) {
				t.Fatalf("reply token mismatch: got %v", reply.Token)
			}
			return reply
		}
		if time.Now().After(deadline) {
			t.Fatal("no reply within deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
