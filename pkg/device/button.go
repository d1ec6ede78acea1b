package device

import (
	"time"

	log "github.com/junbin-yang/meshlight-go/pkg/utils/logger"
)

// ButtonEvent 按键事件
type ButtonEvent uint8

const (
	ButtonReleased ButtonEvent = 0
	ButtonPressed  ButtonEvent = 1
)

func (e ButtonEvent) String() string {
	switch e {
	case ButtonPressed:
		return "Pressed"
	case ButtonReleased:
		return "Released"
	default:
		return "Unknown"
	}
}

// DefaultCooldown 按键消抖冷却时间
const DefaultCooldown = time.Second

// Button 带消抖的按键事件源。原始边沿通过Trigger进入；每个边沿重置
// 冷却定时器，定时器到期后采样引脚电平并向事件通道投递一条事件，
// 使中断侧与协议逻辑通过通道解耦
type Button struct {
	pin      Pin
	cooldown time.Duration
	edges    chan struct{}
	events   chan ButtonEvent
	done     chan struct{}
}

// NewButton 创建按键事件源，cooldown<=0时使用默认值
func NewButton(pin Pin, cooldown time.Duration) *Button {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Button{
		pin:      pin,
		cooldown: cooldown,
		edges:    make(chan struct{}, 8),
		events:   make(chan ButtonEvent, 4),
		done:     make(chan struct{}),
	}
}

// Events 返回按键事件通道
func (b *Button) Events() <-chan ButtonEvent {
	return b.events
}

// Trigger 上报一次原始边沿（可在任意goroutine调用，不阻塞）
func (b *Button) Trigger() {
	select {
	case b.edges <- struct{}{}:
	default:
		// 冷却期内的边沿风暴直接丢弃
	}
}

// Start 启动消抖处理goroutine
func (b *Button) Start() {
	go b.run()
}

// Stop 停止按键事件源
func (b *Button) Stop() {
	close(b.done)
}

func (b *Button) run() {
	timer := time.NewTimer(b.cooldown)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-b.edges:
			// 每个新边沿重置冷却定时器
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(b.cooldown)
		case <-timer.C:
			evt := ButtonReleased
			if b.pin.Get() {
				evt = ButtonPressed
			}
			select {
			case b.events <- evt:
			default:
				log.Warnf("[BUTTON] event channel full, drop %s", evt)
			}
		}
	}
}
