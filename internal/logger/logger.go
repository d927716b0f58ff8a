// Package logger はzapによる構造化ログ出力を設定する。
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New は環境に応じたzap.Loggerを生成する。
// production ではInfo以上をJSONで、それ以外ではDebug以上を色付きのコンソール形式で出力する。
// w が nil の場合は os.Stdout に出力する。
func New(env string, w io.Writer) *zap.Logger {
	if w == nil {
		w = os.Stdout
	}

	var (
		encoder zapcore.Encoder
		level   zapcore.Level
		opts    []zap.Option
	)
	if env == "production" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "time"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
		level = zapcore.InfoLevel
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
		level = zapcore.DebugLevel
		opts = append(opts, zap.Development())
	}
	opts = append(opts, zap.AddCaller())

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core, opts...)
}

// SetupDefault はロガーを生成してグローバルロガーに設定する。
// 戻り値の関数でグローバルロガーを元に戻す。
func SetupDefault(env string, w io.Writer) (*zap.Logger, func()) {
	l := New(env, w)
	restore := zap.ReplaceGlobals(l)
	return l, restore
}
