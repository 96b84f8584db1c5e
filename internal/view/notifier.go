package view

import "go.uber.org/zap"

type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindError   Kind = "error"
)

type Notification struct {
	Message string
	Kind    Kind
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Notify(notification Notification)
}

type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger}
}

func (n *LogNotifier) Notify(notification Notification) {
	fields := []zap.Field{zap.String("kind", string(notification.Kind))}

	if notification.Kind == KindError {
		n.logger.Warn(notification.Message, fields...)

		return
	}

	n.logger.Info(notification.Message, fields...)
}

type NotifierFunc func(notification Notification)

func (f NotifierFunc) Notify(notification Notification) {
	f(notification)
}
