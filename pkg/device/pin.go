// 设备硬件抽象：引脚、执行器状态与按键事件源
package device

import "sync"

// Pin 抽象一个可读写的布尔引脚（LED输出/按键输入）
type Pin interface {
	Get() bool
	Set(v bool)
}

// MemoryPin 内存引脚，用于仿真环境与测试
type MemoryPin struct {
	mu sync.Mutex
	v  bool
}

func NewMemoryPin(initial bool) *MemoryPin {
	return &MemoryPin{v: initial}
}

func (p *MemoryPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.v
}

func (p *MemoryPin) Set(v bool) {
	p.mu.Lock()
	p.v = v
	p.mu.Unlock()
}
