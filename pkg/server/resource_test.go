package server

import (
	"bytes"
	"net"
	"testing"

	"github.com/junbin-yang/meshlight-go/pkg/coap"
	"github.com/junbin-yang/meshlight-go/pkg/device"
)

var testPeer = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 12345}

// 构造注册了灯对象资源的注册表
func newLightRegistry() (*Registry, *device.State) {
	state := device.NewState(device.NewMemoryPin(false))
	reg := NewRegistry()
	RegisterLightResources(reg, state)
	return reg, state
}

// 构造一条请求消息
func newRequest(t coap.Type, code coap.Code, path []string, payload []byte) *coap.Message {
	return &coap.Message{
		Version:   coap.Version1,
		Type:      t,
		Code:      code,
		MessageID: 0x4242,
		Token:     []byte{0xDE, 0xAD, 0xBE, 0xEF},
		Options:   coap.PathOptions(path),
		Payload:   payload,
	}
}

// 测试重复注册路径触发panic
func TestRegistry_DuplicatePath(t *testing.T) {
	reg := NewRegistry()
	res := &Resource{Path: []string{"a", "b"}}
	reg.Register(res)

	defer func() {
		if recover() == nil {
			t.Fatal("duplicate registration must panic")
		}
	}()
	reg.Register(&Resource{Path: []string{"a", "b"}})
}

// 测试响应复用请求Token与消息ID，且CON请求回ACK
func TestDispatch_ResponseMirrorsRequest(t *testing.T) {
	reg, _ := newLightRegistry()

	req := newRequest(coap.TypeConfirmable, coap.CodeGet, LightStatePath, nil)
	resp := reg.Dispatch(req, testPeer)

	if resp.Type != coap.TypeAck {
		t.Fatalf("CON request must get ACK response, got type %d", resp.Type)
	}
	if resp.MessageID != req.MessageID {
		t.Fatalf("message id mismatch: got %d", resp.MessageID)
	}
	if !bytes.Equal(resp.Token, req.Token) {
		t.Fatalf("token mismatch: got %v", resp.Token)
	}

	// NON请求回NON
	req = newRequest(coap.TypeNonConfirmable, coap.CodeGet, LightStatePath, nil)
	if resp := reg.Dispatch(req, testPeer); resp.Type != coap.TypeNonConfirmable {
		t.Fatalf("NON request must get NON response, got type %d", resp.Type)
	}
}

// 测试未注册路径返回4.04
func TestDispatch_UnknownPath(t *testing.T) {
	reg, _ := newLightRegistry()

	req := newRequest(coap.TypeConfirmable, coap.CodeGet, []string{"1", "2", "3"}, nil)
	if resp := reg.Dispatch(req, testPeer); resp.Code != coap.CodeNotFound {
		t.Fatalf("expected 4.04, got 0x%02x", uint8(resp.Code))
	}
}

// 测试已注册路径上不支持的方法返回4.05
func TestDispatch_MethodNotAllowed(t *testing.T) {
	reg, _ := newLightRegistry()

	// on资源只注册了PUT
	req := newRequest(coap.TypeConfirmable, coap.CodeGet, LightOnPath, nil)
	if resp := reg.Dispatch(req, testPeer); resp.Code != coap.CodeMethodNotAllowed {
		t.Fatalf("expected 4.05, got 0x%02x", uint8(resp.Code))
	}
}

// 测试GET状态资源返回2.05与"0"/"1"负载
func TestDispatch_GetState(t *testing.T) {
	reg, state := newLightRegistry()

	req := newRequest(coap.TypeConfirmable, coap.CodeGet, LightStatePath, nil)
	resp := reg.Dispatch(req, testPeer)
	if resp.Code != coap.CodeContent {
		t.Fatalf("expected 2.05, got 0x%02x", uint8(resp.Code))
	}
	if !bytes.Equal(resp.Payload, []byte("0")) {
		t.Fatalf("expected payload \"0\", got %q", resp.Payload)
	}

	state.Set(true)
	resp = reg.Dispatch(req, testPeer)
	if !bytes.Equal(resp.Payload, []byte("1")) {
		t.Fatalf("expected payload \"1\", got %q", resp.Payload)
	}
}

// 测试PUT状态资源：合法负载改变状态，非法负载返回4.00且状态不变
func TestDispatch_PutState(t *testing.T) {
	reg, state := newLightRegistry()

	req := newRequest(coap.TypeConfirmable, coap.CodePut, LightStatePath, []byte("1"))
	if resp := reg.Dispatch(req, testPeer); resp.Code != coap.CodeChanged {
		t.Fatalf("expected 2.04, got 0x%02x", uint8(resp.Code))
	}
	if !state.Get() {
		t.Fatal("state must be on after PUT \"1\"")
	}

	req = newRequest(coap.TypeConfirmable, coap.CodePut, LightStatePath, []byte("2"))
	if resp := reg.Dispatch(req, testPeer); resp.Code != coap.CodeBadRequest {
		t.Fatalf("expected 4.00, got 0x%02x", uint8(resp.Code))
	}
	if !state.Get() {
		t.Fatal("invalid payload must not change state")
	}

	// 长度必须精确匹配："10"不是"1"
	req = newRequest(coap.TypeConfirmable, coap.CodePut, LightStatePath, []byte("10"))
	if resp := reg.Dispatch(req, testPeer); resp.Code != coap.CodeBadRequest {
		t.Fatalf("expected 4.00 for \"10\", got 0x%02x", uint8(resp.Code))
	}

	req = newRequest(coap.TypeConfirmable, coap.CodePut, LightStatePath, []byte("0"))
	if resp := reg.Dispatch(req, testPeer); resp.Code != coap.CodeChanged {
		t.Fatalf("expected 2.04, got 0x%02x", uint8(resp.Code))
	}
	if state.Get() {
		t.Fatal("state must be off after PUT \"0\"")
	}
}

// 测试on/off/switch资源
func TestDispatch_OnOffSwitch(t *testing.T) {
	reg, state := newLightRegistry()

	on := newRequest(coap.TypeConfirmable, coap.CodePut, LightOnPath, nil)
	if resp := reg.Dispatch(on, testPeer); resp.Code != coap.CodeChanged || !state.Get() {
		t.Fatalf("PUT on failed: code=0x%02x state=%v", uint8(resp.Code), state.Get())
	}

	off := newRequest(coap.TypeConfirmable, coap.CodePut, LightOffPath, nil)
	if resp := reg.Dispatch(off, testPeer); resp.Code != coap.CodeChanged || state.Get() {
		t.Fatalf("PUT off failed: code=0x%02x state=%v", uint8(resp.Code), state.Get())
	}

	// switch无条件翻转，负载内容无关
	sw := newRequest(coap.TypeConfirmable, coap.CodePut, LightSwitchPath, []byte("garbage"))
	if resp := reg.Dispatch(sw, testPeer); resp.Code != coap.CodeChanged || !state.Get() {
		t.Fatalf("PUT switch failed: code=0x%02x state=%v", uint8(resp.Code), state.Get())
	}
	if resp := reg.Dispatch(sw, testPeer); resp.Code != coap.CodeChanged || state.Get() {
		t.Fatalf("second PUT switch failed: code=0x%02x state=%v", uint8(resp.Code), state.Get())
	}
}
