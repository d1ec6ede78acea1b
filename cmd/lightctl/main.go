package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/junbin-yang/meshlight-go/pkg/coap"
	"github.com/junbin-yang/meshlight-go/pkg/server"
)

var (
	nodeAddr = flag.String("addr", "::1", "节点地址")
	nodePort = flag.Int("port", coap.DefaultPort, "节点CoAP端口")
)

// 命令行调试工具：向meshlight节点发送单次CoAP请求
func main() {
	flag.Parse()
	coap.InitMessageID()

	fmt.Println("meshlight control tool")
	fmt.Println("commands: get | put <0|1> | on | off | switch | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "get":
			doRequest(coap.CodeGet, server.LightStatePath, nil)
		case "put":
			if len(fields) < 2 {
				fmt.Println("usage: put <0|1>")
				continue
			}
			doRequest(coap.CodePut, server.LightStatePath, []byte(fields[1]))
		case "on":
			doRequest(coap.CodePut, server.LightOnPath, nil)
		case "off":
			doRequest(coap.CodePut, server.LightOffPath, nil)
		case "switch":
			doRequest(coap.CodePut, server.LightSwitchPath, nil)
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

// doRequest 打开会话发送一条请求，并在2秒内轮询响应
func doRequest(code coap.Code, path []string, payload []byte) {
	sess, err := coap.OpenSession(*nodeAddr, *nodePort)
	if err != nil {
		fmt.Println("open session failed:", err)
		return
	}
	defer sess.Close()

	msg := coap.NewRequest(coap.TypeConfirmable, code, path)
	msg.Payload = payload
	data, err := coap.EncodeToBytes(msg)
	if err != nil {
		fmt.Println("encode failed:", err)
		return
	}
	if _, err := sess.Send(data); err != nil {
		fmt.Println("send failed:", err)
		return
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := sess.TryRecv(coap.MaxMessageSize)
		if err != nil {
			fmt.Println("recv failed:", err)
			return
		}
		if data != nil {
			reply, err := coap.Decode(data)
			if err != nil {
				fmt.Println("invalid reply:", err)
				return
			}
			fmt.Printf("code=0x%02x payload=%q\n", uint8(reply.Code), reply.Payload)
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	fmt.Println("no reply")
}
