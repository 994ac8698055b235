package schedule

import "log/slog"

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// Notifier 是提示消息的出口，只负责展示，不返回任何结果
type Notifier interface {
	Notify(severity Severity, message string)
}

type NotifierFunc func(severity Severity, message string)

func (f NotifierFunc) Notify(severity Severity, message string) {
	f(severity, message)
}

// LogNotifier 把提示写入日志，用于没有界面的调用方
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(severity Severity, message string) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch severity {
	case SeverityError:
		logger.Error(message)
	default:
		logger.Info(message, "severity", string(severity))
	}
}
