package logging

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// CronAdapter adapts an slog.Logger to cron.Logger so scheduler events land
// in the same structured log stream as everything else.
type CronAdapter struct {
	logger *slog.Logger
}

var _ cron.Logger = (*CronAdapter)(nil)

// NewCronAdapter creates a new CronAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used.
func NewCronAdapter(logger *slog.Logger) *CronAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronAdapter{logger: logger}
}

// Info logs routine scheduler activity. The cron library is chatty, so these
// go to debug level.
func (a *CronAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

// Error logs a scheduler failure.
func (a *CronAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append([]interface{}{Err(err)}, keysAndValues...)...)
}

// Logger returns the underlying slog.Logger for direct access when needed.
func (a *CronAdapter) Logger() *slog.Logger {
	return a.logger
}
