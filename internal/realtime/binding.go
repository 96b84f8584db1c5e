package realtime

import (
	"sync"

	"github.com/goevery/gigboard/internal/model"
)

type bindingKey struct {
	event string
	key   string
}

// Binding scopes a view's use of the shared connection. Everything a view
// registers through its binding is deregistered by Release, while the
// connection itself stays up for the next view.
type Binding struct {
	conn Conn

	mu            sync.Mutex
	userId        string
	role          string
	active        bool
	subscriptions map[bindingKey]*Subscription
}

func NewBinding(conn Conn, userId, role string) *Binding {
	return &Binding{
		conn:          conn,
		userId:        userId,
		role:          role,
		subscriptions: make(map[bindingKey]*Subscription),
	}
}

func (b *Binding) Activate() {
	b.mu.Lock()
	if b.active {
		b.mu.Unlock()

		return
	}
	b.active = true
	userId, role := b.userId, b.role
	b.mu.Unlock()

	b.conn.Connect(userId, role)
}

// SetIdentity rebinds to another user. The subscriptions made for the
// previous user are released.
func (b *Binding) SetIdentity(userId, role string) {
	if role == "" {
		role = model.RoleOwner
	}

	b.mu.Lock()
	if b.userId == userId && b.role == role {
		b.mu.Unlock()

		return
	}

	changedUser := b.userId != userId
	b.userId = userId
	b.role = role
	active := b.active
	b.mu.Unlock()

	if changedUser {
		b.Release()
	}

	if active {
		b.conn.Connect(userId, role)
	}
}

// On registers handler under key. A key already registered for event keeps
// its existing subscription.
func (b *Binding) On(event, key string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := bindingKey{event, key}
	if _, ok := b.subscriptions[k]; ok {
		return
	}

	b.subscriptions[k] = b.conn.On(event, handler)
}

func (b *Binding) Off(event, key string) {
	b.mu.Lock()
	k := bindingKey{event, key}
	subscription, ok := b.subscriptions[k]
	delete(b.subscriptions, k)
	b.mu.Unlock()

	if ok {
		b.conn.Off(event, subscription)
	}
}

func (b *Binding) Emit(event string, data any) {
	b.conn.Emit(event, data)
}

func (b *Binding) IsConnected() bool {
	return b.conn.IsConnected()
}

// Release deregisters every subscription made through the binding.
func (b *Binding) Release() {
	b.mu.Lock()
	subscriptions := b.subscriptions
	b.subscriptions = make(map[bindingKey]*Subscription)
	b.mu.Unlock()

	for k, subscription := range subscriptions {
		b.conn.Off(k.event, subscription)
	}
}
