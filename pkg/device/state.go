package device

import "sync"

// State 执行器的开关状态。服务端处理函数与按键流程可能在不同goroutine
// 访问，内部用互斥锁保护；状态变化同步驱动引脚输出
type State struct {
	mu  sync.Mutex
	on  bool
	pin Pin // 可为nil（纯状态，无引脚输出）
}

// NewState 创建执行器状态，初始值取引脚当前电平
func NewState(pin Pin) *State {
	s := &State{pin: pin}
	if pin != nil {
		s.on = pin.Get()
	}
	return s
}

// Get 读取当前开关状态
func (s *State) Get() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

// Set 设置开关状态并驱动引脚
func (s *State) Set(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.on = on
	if s.pin != nil {
		s.pin.Set(on)
	}
}

// Toggle 翻转开关状态，返回翻转后的值
func (s *State) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.on = !s.on
	if s.pin != nil {
		s.pin.Set(s.on)
	}
	return s.on
}
