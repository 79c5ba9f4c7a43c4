package flowtree

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/flowtree/internal/coroutine"
	"github.com/wippyai/flowtree/internal/translate"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package logger, a no-op logger unless SetLogger was
// called.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger sets the logger used by the translator and every pass.
func SetLogger(l *zap.Logger) {
	logger = l
	translate.SetLogger(l)
	coroutine.SetLogger(l)
}
