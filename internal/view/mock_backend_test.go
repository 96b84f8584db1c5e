package view

import (
	"context"
	"sync"

	"github.com/goevery/gigboard/internal/marketplace"
	"github.com/goevery/gigboard/internal/model"
	"github.com/goevery/gigboard/internal/realtime"
	"github.com/stretchr/testify/mock"
)

type mockBackend struct {
	mock.Mock
}

var _ marketplace.Backend = (*mockBackend)(nil)

func (m *mockBackend) Login(ctx context.Context, email, password string) (marketplace.AuthResult, error) {
	args := m.Called(ctx, email, password)
	result, _ := args.Get(0).(marketplace.AuthResult)

	return result, args.Error(1)
}

func (m *mockBackend) Register(ctx context.Context, form marketplace.SignupForm) (marketplace.AuthResult, error) {
	args := m.Called(ctx, form)
	result, _ := args.Get(0).(marketplace.AuthResult)

	return result, args.Error(1)
}

func (m *mockBackend) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockBackend) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	return m.Called(ctx, email, otp, newPassword).Error(0)
}

func (m *mockBackend) Profile(ctx context.Context) (model.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(model.User)

	return user, args.Error(1)
}

func (m *mockBackend) UpdateProfile(ctx context.Context, update marketplace.ProfileUpdate) (model.User, error) {
	args := m.Called(ctx, update)
	user, _ := args.Get(0).(model.User)

	return user, args.Error(1)
}

func (m *mockBackend) MyJobs(ctx context.Context) ([]model.Job, error) {
	args := m.Called(ctx)
	jobs, _ := args.Get(0).([]model.Job)

	return jobs, args.Error(1)
}

func (m *mockBackend) CreateJob(ctx context.Context, draft marketplace.JobDraft) (model.Job, error) {
	args := m.Called(ctx, draft)
	job, _ := args.Get(0).(model.Job)

	return job, args.Error(1)
}

func (m *mockBackend) DeleteJob(ctx context.Context, jobId string) error {
	return m.Called(ctx, jobId).Error(0)
}

func (m *mockBackend) OwnerApplications(ctx context.Context) ([]model.Application, error) {
	args := m.Called(ctx)
	applications, _ := args.Get(0).([]model.Application)

	return applications, args.Error(1)
}

func (m *mockBackend) UpdateApplicationStatus(ctx context.Context, applicationId, status string) (model.Application, error) {
	args := m.Called(ctx, applicationId, status)
	application, _ := args.Get(0).(model.Application)

	return application, args.Error(1)
}

func (m *mockBackend) SubmitRating(ctx context.Context, draft marketplace.RatingDraft) error {
	return m.Called(ctx, draft).Error(0)
}

func (m *mockBackend) EmployerPayments(ctx context.Context) ([]model.Payment, error) {
	args := m.Called(ctx)
	payments, _ := args.Get(0).([]model.Payment)

	return payments, args.Error(1)
}

func (m *mockBackend) MarkPaymentPaid(ctx context.Context, paymentId string, confirmation marketplace.PaymentConfirmation) (model.Payment, error) {
	args := m.Called(ctx, paymentId, confirmation)
	payment, _ := args.Get(0).(model.Payment)

	return payment, args.Error(1)
}

// fakeConn stands in for the shared realtime connection and lets tests push
// events to whatever the views registered.
type fakeConn struct {
	mu           sync.Mutex
	connects     [][2]string
	handlers     map[*realtime.Subscription]realtime.Handler
	offs         int
	disconnected int
}

var _ realtime.Conn = (*fakeConn)(nil)

func newFakeConn() *fakeConn {
	return &fakeConn{handlers: make(map[*realtime.Subscription]realtime.Handler)}
}

func (c *fakeConn) Connect(userId, role string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connects = append(c.connects, [2]string{userId, role})
}

func (c *fakeConn) On(event string, handler realtime.Handler) *realtime.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	subscription := &realtime.Subscription{Event: event}
	c.handlers[subscription] = handler

	return subscription
}

func (c *fakeConn) Off(event string, subscriptions ...*realtime.Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, subscription := range subscriptions {
		if _, ok := c.handlers[subscription]; ok {
			delete(c.handlers, subscription)
			c.offs++
		}
	}
}

func (c *fakeConn) Emit(event string, data any) {}

func (c *fakeConn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.connects) > 0 && c.disconnected == 0
}

func (c *fakeConn) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disconnected++
	c.handlers = make(map[*realtime.Subscription]realtime.Handler)
}

func (c *fakeConn) push(event realtime.Event) {
	c.mu.Lock()
	var handlers []realtime.Handler
	for subscription, handler := range c.handlers {
		if subscription.Event == event.Name() {
			handlers = append(handlers, handler)
		}
	}
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (c *fakeConn) subscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.handlers)
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []Notification
}

func (n *recordingNotifier) Notify(notification Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.notifications = append(n.notifications, notification)
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	messages := make([]string, 0, len(n.notifications))
	for _, notification := range n.notifications {
		messages = append(messages, notification.Message)
	}

	return messages
}
