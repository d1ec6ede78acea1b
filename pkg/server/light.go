package server

import (
	"bytes"
	"net"

	"github.com/junbin-yang/meshlight-go/pkg/coap"
	"github.com/junbin-yang/meshlight-go/pkg/device"
	log "github.com/junbin-yang/meshlight-go/pkg/utils/logger"
)

// 灯对象的资源路径（OnOff对象的簇/实例/属性编号，固定不可配置）
var (
	LightStatePath  = []string{"42769", "0", "1"} // GET/PUT 开关状态
	LightOnPath     = []string{"42769", "0", "2"} // PUT 开灯
	LightOffPath    = []string{"42769", "0", "3"} // PUT 关灯
	LightSwitchPath = []string{"42769", "0", "4"} // PUT 翻转
)

var (
	payloadOn  = []byte("1")
	payloadOff = []byte("0")
)

// RegisterLightResources 将灯对象的四个资源注册到注册表
func RegisterLightResources(reg *Registry, state *device.State) {
	reg.Register(&Resource{
		Path: LightStatePath,
		Get:  lightStateGet(state),
		Put:  lightStatePut(state),
	})
	reg.Register(&Resource{
		Path: LightOnPath,
		Put: func(req *coap.Message, peer *net.UDPAddr, resp *coap.Message) coap.Code {
			log.Infof("[LIGHT] on, peer=%v", peer)
			state.Set(true)
			return coap.CodeChanged
		},
	})
	reg.Register(&Resource{
		Path: LightOffPath,
		Put: func(req *coap.Message, peer *net.UDPAddr, resp *coap.Message) coap.Code {
			log.Infof("[LIGHT] off, peer=%v", peer)
			state.Set(false)
			return coap.CodeChanged
		},
	})
	reg.Register(&Resource{
		Path: LightSwitchPath,
		Put: func(req *coap.Message, peer *net.UDPAddr, resp *coap.Message) coap.Code {
			// 无条件翻转，不解析负载
			v := state.Toggle()
			log.Infof("[LIGHT] switch -> %v, peer=%v", v, peer)
			return coap.CodeChanged
		},
	})
}

// lightStateGet 读取开关状态，负载为"0"/"1"文本
func lightStateGet(state *device.State) Handler {
	return func(req *coap.Message, peer *net.UDPAddr, resp *coap.Message) coap.Code {
		resp.AddOption(coap.OptionContentFormat, []byte{coap.ContentFormatText})
		if state.Get() {
			resp.Payload = payloadOn
		} else {
			resp.Payload = payloadOff
		}
		return coap.CodeContent
	}
}

// lightStatePut 按负载设置开关状态。负载按长度做完整字节比较，
// 不以终止符判断字符串边界；"0"/"1"之外一律返回4.00且状态不变
func lightStatePut(state *device.State) Handler {
	return func(req *coap.Message, peer *net.UDPAddr, resp *coap.Message) coap.Code {
		switch {
		case bytes.Equal(req.Payload, payloadOff):
			log.Infof("[LIGHT] disabling, peer=%v", peer)
			state.Set(false)
		case bytes.Equal(req.Payload, payloadOn):
			log.Infof("[LIGHT] enabling, peer=%v", peer)
			state.Set(true)
		default:
			log.Warnf("[LIGHT] invalid payload (len=%d), peer=%v", len(req.Payload), peer)
			return coap.CodeBadRequest
		}
		return coap.CodeChanged
	}
}
