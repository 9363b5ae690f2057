package logging

import "go.uber.org/zap"

// CronLogger 实现 cron.Logger 接口
type CronLogger struct {
	log *zap.SugaredLogger
}

func NewCronLogger(log *zap.Logger) CronLogger {
	return CronLogger{log: log.Named("cron").Sugar()}
}

func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
