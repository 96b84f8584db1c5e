package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/realtime"
	"go.uber.org/zap"
)

// Identity is the user a view is opened for.
type Identity struct {
	UserId string
	Role   string
}

type listener struct {
	event   string
	handler realtime.Handler
}

// page is the part shared by the views that reload on pushed events.
type page[T any] struct {
	*Loader[T]

	name     string
	logger   *zap.Logger
	binding  *realtime.Binding
	notifier Notifier
}

func newPage[T any](name string, logger *zap.Logger, conn realtime.Conn, notifier Notifier, identity Identity, fetch FetchFunc[T]) *page[T] {
	logger = logger.With(zap.String("view", name))

	return &page[T]{
		Loader:   NewLoader(logger, fetch),
		name:     name,
		logger:   logger,
		binding:  realtime.NewBinding(conn, identity.UserId, identity.Role),
		notifier: notifier,
	}
}

func (p *page[T]) open(ctx context.Context, listeners []listener) error {
	p.binding.Activate()

	for _, l := range listeners {
		p.binding.On(l.event, p.name, l.handler)
	}

	return p.Load(ctx)
}

// Close releases the view's subscriptions. The shared connection stays up.
func (p *page[T]) Close() {
	p.binding.Release()
	p.Loader.Close()
}

func (p *page[T]) IsConnected() bool {
	return p.binding.IsConnected()
}

// reloadOn builds a listener that reloads the view, after showing the
// message toast returns for the event, if any.
func (p *page[T]) reloadOn(event string, toast func(realtime.Event) (Notification, bool)) listener {
	return listener{event, func(e realtime.Event) {
		p.logger.Debug("reloading on event", zap.String("event", e.Name()))

		if toast != nil {
			if notification, ok := toast(e); ok {
				p.notifier.Notify(notification)
			}
		}

		p.Reload()
	}}
}

func (p *page[T]) notify(kind Kind, format string, args ...any) {
	p.notifier.Notify(Notification{fmt.Sprintf(format, args...), kind})
}

func toast(kind Kind, message string) func(realtime.Event) (Notification, bool) {
	return func(realtime.Event) (Notification, bool) {
		return Notification{message, kind}, true
	}
}

func applicationToast(e realtime.Event) (Notification, bool) {
	event, ok := e.(realtime.ApplicationNew)
	if !ok {
		return Notification{}, false
	}

	return Notification{
		fmt.Sprintf("New application received for %s!", event.Application.JobTitle()),
		KindSuccess,
	}, true
}

// isValidation reports whether err was raised by a local field check rather
// than returned by the backend.
func isValidation(err error) bool {
	var e ierr.Error
	if !errors.As(err, &e) {
		return false
	}

	return e.Code == ierr.ErrorCodeInvalidArgument && e.Status == 0
}
