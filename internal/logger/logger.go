package logger

import (
	"go.uber.org/zap"
)

// Log is the process-wide sugared logger. It is a no-op until Init is called.
var Log = zap.NewNop().Sugar()

// Init replaces Log with a production logger, or a development logger when
// env is "development".
func Init(env string) {
	var (
		l   *zap.Logger
		err error
	)
	if env == "development" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = l.Sugar()
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Log.Sync()
}
