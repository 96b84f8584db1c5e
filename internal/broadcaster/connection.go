package broadcaster

import (
	"context"
	"sync"
)

type Connection struct {
	Id   string
	Send chan Message

	mu     sync.RWMutex
	userId string
	role   string
}

func NewConnection(id string, buffer int) *Connection {
	return &Connection{
		Id:   id,
		Send: make(chan Message, buffer),
	}
}

func (c *Connection) SetIdentity(userId, role string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.userId = userId
	c.role = role
}

func (c *Connection) GetUserId() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.userId
}

func (c *Connection) GetRole() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.role
}

type contextKey string

const connectionKey contextKey = "connection"

func WithConnection(ctx context.Context, conn *Connection) context.Context {
	return context.WithValue(ctx, connectionKey, conn)
}

func ConnectionFromContext(ctx context.Context) (*Connection, bool) {
	conn, ok := ctx.Value(connectionKey).(*Connection)

	return conn, ok
}
