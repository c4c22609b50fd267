package logger

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log 全局 Logger, 未调用 Init 时为 Nop (单元测试默认静默)
var Log = zap.NewNop()

// Init 根据运行环境初始化全局 Logger
// production 输出 JSON + ISO8601 时间, 其他环境输出彩色 Console
// level 为空时使用环境默认级别 (production: info, 其他: debug)
func Init(env, level string) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			panic("logger: invalid level " + level)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.InitialFields = map[string]any{"service": "guard-core", "env": env}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	Log = l
	zap.ReplaceGlobals(Log)
}

func Sync() {
	_ = Log.Sync()
}

// With 返回带固定字段的子 Logger (不跳过调用栈)
func With(fields ...zap.Field) *zap.Logger {
	return Log.WithOptions(zap.AddCallerSkip(-1)).With(fields...)
}

// Fingerprint 交易 fingerprint 字段
func Fingerprint(fp common.Hash) zap.Field {
	return zap.String("fingerprint", fp.Hex())
}

// Address 以太坊地址字段, 使用 EIP-55 校验和格式
func Address(key string, addr common.Address) zap.Field {
	return zap.String(key, addr.Hex())
}

func Info(msg string, fields ...zap.Field)  { Log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Log.Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Log.Fatal(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { Log.Debug(msg, fields...) }
