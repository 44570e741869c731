package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	logger *zap.Logger
)

// Logger returns the process-wide logger, building it on first use.
func Logger() *zap.Logger {
	once.Do(func() {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l
	})
	return logger
}
