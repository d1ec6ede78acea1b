// CoAP资源注册表与请求分发
package server

import (
	"fmt"
	"net"
	"strings"

	"github.com/junbin-yang/meshlight-go/pkg/coap"
)

// Handler 资源方法处理函数。处理函数读取请求、可向resp写入负载与选项，
// 返回响应状态码；处理函数内部的校验失败以状态码（如4.00）表达，
// 不会中断请求处理流程
type Handler func(req *coap.Message, peer *net.UDPAddr, resp *coap.Message) coap.Code

// Resource 一个服务端资源：路径唯一标识 + 按方法注册的处理函数
type Resource struct {
	Path []string
	Get  Handler
	Put  Handler
}

// Registry 资源注册表。资源在进程启动期一次性注册，之后只读，
// 查找为路径精确匹配（不支持通配）
type Registry struct {
	resources map[string]*Resource
}

func NewRegistry() *Registry {
	return &Registry{resources: make(map[string]*Resource)}
}

// pathKey 将路径段拼接为注册表键
func pathKey(path []string) string {
	return strings.Join(path, "/")
}

// Register 注册资源。路径重复属于编程错误，直接panic
func (r *Registry) Register(res *Resource) {
	key := pathKey(res.Path)
	if _, ok := r.resources[key]; ok {
		panic(fmt.Sprintf("resource path already registered: %s", key))
	}
	r.resources[key] = res
}

// Lookup 按路径精确查找资源，未注册返回nil
func (r *Registry) Lookup(path []string) *Resource {
	return r.resources[pathKey(path)]
}

// Dispatch 将解码后的请求路由到资源处理函数并构造响应消息。
// 响应复用请求的Token与消息ID；CON请求回ACK，其余回NON
func (r *Registry) Dispatch(req *coap.Message, peer *net.UDPAddr) *coap.Message {
	resp := &coap.Message{
		Version:   coap.Version1,
		Type:      coap.ResponseType(req.Type),
		MessageID: req.MessageID,
		Token:     req.Token,
	}

	res := r.Lookup(req.PathSegments())
	if res == nil {
		resp.Code = coap.CodeNotFound
		return resp
	}

	var h Handler
	switch req.Code {
	case coap.CodeGet:
		h = res.Get
	case coap.CodePut:
		h = res.Put
	}
	if h == nil {
		resp.Code = coap.CodeMethodNotAllowed
		return resp
	}

	resp.Code = h(req, peer, resp)
	return resp
}
