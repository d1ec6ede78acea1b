package config

import (
	"flag"
	"fmt"
	log "github.com/junbin-yang/meshlight-go/pkg/utils/logger"
	"gopkg.in/yaml.v2"
	"io/ioutil"
	"os"
	"path/filepath"
)

var (
	APPNAME    string = "meshlight"
	VERSION    string = "undefined"
	BUILD_TIME string = "undefined"
	GO_VERSION string = "undefined"
)

type Config struct {
	Node struct {
		PeerAddr         string // 网关（对端）地址，构建期静态配置
		PeerPort         int    // 网关CoAP端口
		ListenPort       int    // 本机CoAP服务端口
		StepDelaySec     int    // 客户端序列步骤间隔（秒）
		ButtonCooldownMs int    // 按键消抖冷却（毫秒）
	}
	Logger struct {
		Dir    string
		Level  string
		Rotate bool
	}
}

func init() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stdout, APPNAME+", version: "+VERSION+" (built at "+BUILD_TIME+") "+GO_VERSION)
		flag.PrintDefaults()
	}
	flag.Parse()
}

// 未提供配置文件时的缺省值
func defaults(conf *Config) {
	conf.Node.PeerAddr = "::1"
	conf.Node.PeerPort = 5683
	conf.Node.ListenPort = 5683
	conf.Node.StepDelaySec = 10
	conf.Node.ButtonCooldownMs = 1000
}

func Parse() *Config {
	ex, e := os.Executable()
	if e != nil {
		panic(e)
	}

	conf := new(Config)
	defaults(conf)

	cfile := filepath.Dir(ex) + "/" + APPNAME + ".yml"
	if _, err := os.Stat(cfile); os.IsNotExist(err) {
		cfile = "/etc/" + APPNAME + ".yml"
	}
	if data, err := ioutil.ReadFile(cfile); err == nil {
		yaml.Unmarshal(data, &conf)
	} else {
		log.Warnf("config file not found, using defaults: %v", err)
	}

	defer log.Sync()
	if conf.Logger.Rotate {
		if len(conf.Logger.Dir) == 0 {
			conf.Logger.Dir = filepath.Dir(ex)
		}
		out := log.NewProductionRotateByTime(conf.Logger.Dir + "/" + APPNAME + ".log")
		logger := log.New(out, log.InfoLevel)
		log.ReplaceDefault(logger)
	}
	switch conf.Logger.Level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	return conf
}
