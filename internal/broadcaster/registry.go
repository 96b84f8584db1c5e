package broadcaster

import (
	"sync"

	"go.uber.org/zap"
)

type Registry interface {
	Broadcast(message Message)
	Register(connection *Connection)
	Join(userId string, connection *Connection)
	Disconnect(connectionId string)
}

type InMemoryRegistry struct {
	logger *zap.Logger
	mu     sync.RWMutex

	connections       map[string]*Connection
	connectionsByUser map[string]map[string]struct{}
	userByConnection  map[string]string
}

func NewInMemoryRegistry(
	logger *zap.Logger,
) *InMemoryRegistry {
	return &InMemoryRegistry{
		logger:            logger,
		connections:       make(map[string]*Connection),
		connectionsByUser: make(map[string]map[string]struct{}),
		userByConnection:  make(map[string]string),
	}
}

func (r *InMemoryRegistry) Broadcast(message Message) {
	r.mu.RLock()

	connectionIds, ok := r.connectionsByUser[message.UserId]
	if !ok {
		r.mu.RUnlock()

		return
	}

	var staleConnectionIds []string

	for connectionId := range connectionIds {
		connection, ok := r.connections[connectionId]
		if !ok {
			continue
		}

		select {
		case connection.Send <- message:
		default:
			r.logger.Warn("connection send channel is full, closing connection",
				zap.String("connectionId", connection.Id))

			staleConnectionIds = append(staleConnectionIds, connection.Id)
		}
	}

	r.mu.RUnlock()

	if len(staleConnectionIds) == 0 {
		return
	}

	r.mu.Lock()

	for _, connectionId := range staleConnectionIds {
		r.disconnectLocked(connectionId)
	}

	r.mu.Unlock()
}

func (r *InMemoryRegistry) Register(connection *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connections[connection.Id] = connection
}

// Join registers the connection for userId. A connection that joined as
// another user before is moved.
func (r *InMemoryRegistry) Join(userId string, connection *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.userByConnection[connection.Id]; ok {
		r.leaveLocked(previous, connection.Id)
	}

	if _, ok := r.connectionsByUser[userId]; !ok {
		r.connectionsByUser[userId] = make(map[string]struct{})
	}

	r.connectionsByUser[userId][connection.Id] = struct{}{}
	r.userByConnection[connection.Id] = userId
	r.connections[connection.Id] = connection
}

func (r *InMemoryRegistry) Connections(userId string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connectionsByUser[userId])
}

func (r *InMemoryRegistry) Disconnect(connectionId string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.disconnectLocked(connectionId)
}

// IMPORTANT: It must be called only when a write lock is already held.
func (r *InMemoryRegistry) leaveLocked(userId, connectionId string) {
	userConnections, ok := r.connectionsByUser[userId]
	if !ok {
		panic("inconsistent state: user not found in connectionsByUser")
	}

	delete(userConnections, connectionId)
	if len(userConnections) == 0 {
		delete(r.connectionsByUser, userId)
	}

	delete(r.userByConnection, connectionId)
}

// IMPORTANT: It must be called only when a write lock is already held.
func (r *InMemoryRegistry) disconnectLocked(connectionId string) {
	connection, ok := r.connections[connectionId]
	if !ok {
		return
	}

	if userId, ok := r.userByConnection[connectionId]; ok {
		r.leaveLocked(userId, connectionId)
	}

	delete(r.connections, connectionId)
	close(connection.Send)
}
