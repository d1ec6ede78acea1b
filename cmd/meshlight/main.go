package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/junbin-yang/meshlight-go/pkg/client"
	"github.com/junbin-yang/meshlight-go/pkg/coap"
	"github.com/junbin-yang/meshlight-go/pkg/device"
	"github.com/junbin-yang/meshlight-go/pkg/server"
	"github.com/junbin-yang/meshlight-go/pkg/utils/config"
	"github.com/junbin-yang/meshlight-go/pkg/utils/logger"
)

// 节点主程序：同时作为CoAP服务端（本机灯对象）与CoAP客户端（按键触发
// 向网关发送请求序列）。SIGUSR1模拟一次按键边沿
func main() {
	conf := config.Parse()
	defer logger.Sync()

	logger.Info("[MAIN] starting coap server and coap client")
	coap.InitMessageID()

	// 引脚：灯引脚 + 连接/配网指示灯 + 按键输入
	lightPin := device.NewMemoryPin(false)
	connLED := device.NewMemoryPin(false)
	provLED := device.NewMemoryPin(false)
	buttonPin := device.NewMemoryPin(false)

	state := device.NewState(lightPin)

	// 注册灯对象资源并启动服务端
	registry := server.NewRegistry()
	server.RegisterLightResources(registry, state)
	srv := server.NewServer(registry)
	if err := srv.Start(conf.Node.ListenPort); err != nil {
		logger.Error("[MAIN] start server failed", logger.GetError(err))
		os.Exit(1)
	}
	defer srv.Stop()

	// 链路与配网就绪指示
	connLED.Set(true)
	provLED.Set(true)

	// 按键事件源（消抖后经通道投递）
	button := device.NewButton(buttonPin, time.Duration(conf.Node.ButtonCooldownMs)*time.Millisecond)
	button.Start()
	defer button.Stop()

	seq := client.NewSequencer(client.Config{
		PeerAddr:  conf.Node.PeerAddr,
		PeerPort:  conf.Node.PeerPort,
		StepDelay: time.Duration(conf.Node.StepDelaySec) * time.Second,
	})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

	for {
		select {
		case sig := <-sigs:
			if sig == syscall.SIGUSR1 {
				// 模拟按键边沿：翻转电平并上报
				buttonPin.Set(!buttonPin.Get())
				button.Trigger()
				continue
			}
			logger.Infof("[MAIN] got signal %v, shutting down", sig)
			return
		case evt := <-button.Events():
			logger.Infof("[MAIN] button event: %s", evt)
			if evt != device.ButtonPressed {
				continue
			}
			// 序列在独立goroutine执行，等待期间不阻塞服务端处理；
			// 执行中的重复触发被Run拒绝
			go func() {
				if err := seq.Run(); err != nil {
					logger.Error("[MAIN] request sequence failed", logger.GetError(err))
				}
				logger.Info("[MAIN] closed coap client")
			}()
		}
	}
}
