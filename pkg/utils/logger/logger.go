// 基于zap的日志封装，支持按时间/大小滚动日志文件
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 日志级别别名（直接复用zapcore定义）
type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

// 结构化字段别名
type Field = zap.Field

// GetError 将error包装为结构化字段
func GetError(err error) Field {
	return zap.Error(err)
}

// Logger 日志实例，封装zap.Logger并持有可动态调整的级别
type Logger struct {
	l     *zap.Logger
	level zap.AtomicLevel
}

// New 创建日志实例，输出到指定writer
func New(out io.Writer, level Level, opts ...zap.Option) *Logger {
	if out == nil {
		out = os.Stderr
	}

	al := zap.NewAtomicLevelAt(level)
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(out),
		al,
	)
	return &Logger{l: zap.New(core, opts...), level: al}
}

// SetLevel 动态调整日志级别
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level)
}

func (l *Logger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.l.Sugar().Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.l.Sugar().Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.l.Sugar().Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.l.Sugar().Errorf(format, args...) }

// Sync 刷新缓冲的日志条目
func (l *Logger) Sync() error {
	return l.l.Sync()
}

// RotateOptions 日志滚动配置
type RotateOptions struct {
	MaxSize    int  // 单文件最大大小（MB）
	MaxAge     int  // 保留天数
	MaxBackups int  // 保留文件个数
	Compress   bool // 是否压缩
}

// NewProductionRotateByTime 创建按时间滚动的日志writer（每天一个文件，保留30天）
func NewProductionRotateByTime(filename string) io.Writer {
	out, err := rotatelogs.New(
		filename+".%Y%m%d",
		rotatelogs.WithLinkName(filename),
		rotatelogs.WithMaxAge(30*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		// 滚动writer创建失败时退回标准错误输出
		return os.Stderr
	}
	return out
}

// NewProductionRotateBySize 创建按大小滚动的日志writer
func NewProductionRotateBySize(filename string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100,
		MaxAge:     30,
		MaxBackups: 10,
		Compress:   false,
	}
}

var (
	std   = New(os.Stderr, InfoLevel)
	stdMu sync.Mutex
)

// Default 返回默认日志实例
func Default() *Logger {
	stdMu.Lock()
	defer stdMu.Unlock()
	return std
}

// ReplaceDefault 替换默认日志实例
func ReplaceDefault(l *Logger) {
	if l == nil {
		return
	}
	stdMu.Lock()
	std = l
	stdMu.Unlock()
}

// SetLevel 调整默认日志实例的级别
func SetLevel(level Level) {
	Default().SetLevel(level)
}

func Debug(msg string, fields ...Field) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { Default().Warn(msg, fields...) }
func Error(msg string, fields ...Field) { Default().Error(msg, fields...) }

func Debugf(format string, args ...interface{}) { Default().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Default().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Default().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Default().Errorf(format, args...) }

// Sync 刷新默认日志实例
func Sync() error {
	return Default().Sync()
}
