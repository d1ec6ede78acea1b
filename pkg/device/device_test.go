package device

import (
	"testing"
	"time"
)

// 测试状态变化同步驱动引脚
func TestState_MirrorsPin(t *testing.T) {
	pin := NewMemoryPin(false)
	state := NewState(pin)

	state.Set(true)
	if !state.Get() || !pin.Get() {
		t.Fatal("Set(true) must drive pin high")
	}

	if v := state.Toggle(); v || pin.Get() {
		t.Fatal("Toggle must drive pin low")
	}
	if v := state.Toggle(); !v || !pin.Get() {
		t.Fatal("second Toggle must drive pin high")
	}
}

// 测试初始状态取自引脚电平
func TestState_InitialFromPin(t *testing.T) {
	if !NewState(NewMemoryPin(true)).Get() {
		t.Fatal("initial state must follow pin level")
	}
	if NewState(nil).Get() {
		t.Fatal("state without pin must default to off")
	}
}

// 测试按键消抖：冷却到期后采样电平并投递事件
func TestButton_DebouncedEvent(t *testing.T) {
	pin := NewMemoryPin(true)
	btn := NewButton(pin, 10*time.Millisecond)
	btn.Start()
	defer btn.Stop()

	btn.Trigger()

	select {
	case evt := <-btn.Events():
		if evt != ButtonPressed {
			t.Fatalf("expected Pressed, got %s", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("no event after cooldown")
	}
}

// 测试冷却期内的多次边沿合并为一条事件
func TestButton_EdgeStormCoalesced(t *testing.T) {
	pin := NewMemoryPin(false)
	btn := NewButton(pin, 20*time.Millisecond)
	btn.Start()
	defer btn.Stop()

	for i := 0; i < 5; i++ {
		btn.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case evt := <-btn.Events():
		if evt != ButtonReleased {
			t.Fatalf("expected Released, got %s", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("no event after cooldown")
	}

	// 不应再有第二条事件
	select {
	case evt := <-btn.Events():
		t.Fatalf("unexpected second event: %s", evt)
	case <-time.After(50 * time.Millisecond):
	}
}
