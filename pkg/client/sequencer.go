// 按键触发后的客户端请求序列执行器
package client

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/junbin-yang/meshlight-go/pkg/coap"
	log "github.com/junbin-yang/meshlight-go/pkg/utils/logger"
)

// 网关侧OnOff对象的资源路径（固定不可配置）
var (
	TogglePath = []string{"42770", "0", "8"} // PUT 翻转
	OnTimePath = []string{"42770", "0", "3"} // PUT 点亮时长
	OnOffPath  = []string{"42770", "0", "5"} // GET 开关状态
)

// OnTimePayload 点亮时长（秒），PUT OnTime请求的固定负载
var OnTimePayload = []byte("20")

// ErrSequenceBusy 已有序列在执行。序列不可重入：执行期间到来的新触发
// 直接拒绝，由调用方稍后重新发起
var ErrSequenceBusy = errors.New("request sequence already in flight")

// Transport 序列执行器依赖的会话能力
type Transport interface {
	Send(data []byte) (int, error)
	TryRecv(maxLen int) ([]byte, error)
	Close()
}

// State 序列执行器状态
type State uint8

const (
	StateIdle State = iota
	StateClientOpen
	StateStep1Sent // PUT Toggle已发送
	StateWaitDelay1
	StateStep2Sent // PUT OnTime已发送
	StateWaitDelay2
	StateStep3Sent // GET OnOff已发送
	StateAwaitReply
	StateDone
	StateAborted
)

// Config 序列执行器配置
type Config struct {
	PeerAddr string
	PeerPort int

	StepDelay    time.Duration // 步骤间等待，默认10秒
	PollWindow   time.Duration // GET响应的轮询窗口，默认2秒
	PollInterval time.Duration // 轮询间隔，默认100毫秒

	// Dial 会话工厂，nil时创建到对端的UDP会话（测试可注入）
	Dial func() (Transport, error)
}

// Sequencer 向固定对端依次发送 PUT Toggle → PUT OnTime → GET OnOff
// 三个请求，任一步失败则放弃剩余步骤；无论成功失败，传输会话
// 在序列结束时必被释放
type Sequencer struct {
	cfg   Config
	busy  int32
	state atomic.Value // State，仅用于观测
}

func NewSequencer(cfg Config) *Sequencer {
	if cfg.StepDelay <= 0 {
		cfg.StepDelay = 10 * time.Second
	}
	if cfg.PollWindow <= 0 {
		cfg.PollWindow = 2 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.Dial == nil {
		cfg.Dial = func() (Transport, error) {
			return coap.OpenSession(cfg.PeerAddr, cfg.PeerPort)
		}
	}

	s := &Sequencer{cfg: cfg}
	s.state.Store(StateIdle)
	return s
}

// CurrentState 返回当前状态（观测用）
func (s *Sequencer) CurrentState() State {
	return s.state.Load().(State)
}

func (s *Sequencer) setState(st State) {
	s.state.Store(st)
}

// Run 执行一次完整序列。序列进行中再次调用返回ErrSequenceBusy
func (s *Sequencer) Run() error {
	if !atomic.CompareAndSwapInt32(&s.busy, 0, 1) {
		return ErrSequenceBusy
	}
	defer atomic.StoreInt32(&s.busy, 0)

	s.setState(StateClientOpen)
	sess, err := s.cfg.Dial()
	if err != nil {
		s.setState(StateAborted)
		log.Error("[CLIENT] open session failed", log.GetError(err))
		return err
	}
	// 资源释放保证：任何退出路径都会关闭会话
	defer sess.Close()

	err = s.runSteps(sess)
	if err != nil {
		s.setState(StateAborted)
		return err
	}
	s.setState(StateDone)
	return nil
}

func (s *Sequencer) runSteps(sess Transport) error {
	// 第一步：PUT Toggle
	s.setState(StateStep1Sent)
	if err := s.sendRequest(sess, coap.CodePut, TogglePath, nil); err != nil {
		log.Error("[CLIENT] put toggle failed", log.GetError(err))
		return err
	}

	s.setState(StateWaitDelay1)
	time.Sleep(s.cfg.StepDelay)

	// 第二步：PUT OnTime，负载为点亮时长
	s.setState(StateStep2Sent)
	if err := s.sendRequest(sess, coap.CodePut, OnTimePath, OnTimePayload); err != nil {
		log.Error("[CLIENT] put ontime failed", log.GetError(err))
		return err
	}

	s.setState(StateWaitDelay2)
	time.Sleep(s.cfg.StepDelay)

	// 第三步：GET OnOff，随后非阻塞轮询响应
	s.setState(StateStep3Sent)
	if err := s.sendRequest(sess, coap.CodeGet, OnOffPath, nil); err != nil {
		log.Error("[CLIENT] get onoff failed", log.GetError(err))
		return err
	}

	s.setState(StateAwaitReply)
	return s.awaitReply(sess)
}

// sendRequest 编码并发送一条CON请求
func (s *Sequencer) sendRequest(sess Transport, code coap.Code, path []string, payload []byte) error {
	msg := coap.NewRequest(coap.TypeConfirmable, code, path)
	msg.Payload = payload

	data, err := coap.EncodeToBytes(msg)
	if err != nil {
		return err
	}
	log.Debugf("[CLIENT] request % X", data)

	_, err = sess.Send(data)
	return err
}

// awaitReply 在轮询窗口内非阻塞接收GET响应。"无数据"继续轮询；
// 窗口耗尽视为无响应（序列仍然完成）；其余传输/解码错误中止序列
func (s *Sequencer) awaitReply(sess Transport) error {
	deadline := time.Now().Add(s.cfg.PollWindow)
	for {
		data, err := sess.TryRecv(coap.MaxMessageSize)
		if err != nil {
			log.Error("[CLIENT] recv reply failed", log.GetError(err))
			return err
		}
		if data != nil {
			log.Debugf("[CLIENT] response % X", data)
			reply, err := coap.Decode(data)
			if err != nil {
				log.Error("[CLIENT] invalid reply", log.GetError(err))
				return err
			}
			log.Infof("[CLIENT] reply code=0x%02x msgId=%d payload=%q",
				uint8(reply.Code), reply.MessageID, reply.Payload)
			return nil
		}
		if time.Now().After(deadline) {
			log.Warn("[CLIENT] no reply within poll window")
			return nil
		}
		time.Sleep(s.cfg.PollInterval)
	}
}
