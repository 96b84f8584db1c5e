package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/goevery/gigboard/internal/model"
	"github.com/goevery/gigboard/internal/persistence"
	"go.uber.org/zap"
)

const (
	KeyToken         = "authToken"
	KeyUser          = "authUser"
	KeyAuthenticated = "isAuthenticated"
	KeyRole          = "userRole"
)

var keys = []string{KeyToken, KeyUser, KeyAuthenticated, KeyRole}

type State struct {
	Token         string
	User          *model.User
	Authenticated bool
	Role          string
}

// UserId is the identity the realtime connection is joined with.
func (s State) UserId() string {
	if s.User == nil {
		return ""
	}

	return s.User.Id
}

type Listener func(State)

type Store struct {
	logger  *zap.Logger
	storage persistence.Storage

	mu sync.RWMutex

	listenersMu    sync.Mutex
	listeners      map[int]Listener
	nextListenerId int
}

func NewStore(logger *zap.Logger, storage persistence.Storage) *Store {
	return &Store{
		logger:    logger,
		storage:   storage,
		listeners: make(map[int]Listener),
	}
}

func (s *Store) SetAuth(ctx context.Context, token string, user model.User) error {
	userJson, err := json.Marshal(user)
	if err != nil {
		return err
	}

	role := user.Role
	if role == "" {
		role = model.RoleOwner
	}

	s.mu.Lock()
	err = s.storage.Store(ctx, map[string]string{
		KeyToken:         token,
		KeyUser:          string(userJson),
		KeyAuthenticated: "true",
		KeyRole:          role,
	})
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.logger.Info("session stored",
		zap.String("userId", user.Id),
		zap.String("role", role))

	return s.Refresh(ctx)
}

func (s *Store) ClearAuth(ctx context.Context) error {
	s.mu.Lock()
	err := s.storage.Delete(ctx, keys...)
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.logger.Info("session cleared")

	return s.Refresh(ctx)
}

// Snapshot reads all four keys under one read lock.
func (s *Store) Snapshot(ctx context.Context) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var state State

	token, _, err := s.storage.Load(ctx, KeyToken)
	if err != nil {
		return State{}, err
	}
	state.Token = token

	userJson, ok, err := s.storage.Load(ctx, KeyUser)
	if err != nil {
		return State{}, err
	}
	if ok && userJson != "" {
		var user model.User
		if err := json.Unmarshal([]byte(userJson), &user); err != nil {
			s.logger.Warn("stored user record is not valid json", zap.Error(err))
		} else {
			state.User = &user
		}
	}

	authenticated, _, err := s.storage.Load(ctx, KeyAuthenticated)
	if err != nil {
		return State{}, err
	}
	state.Authenticated = authenticated == "true"

	role, _, err := s.storage.Load(ctx, KeyRole)
	if err != nil {
		return State{}, err
	}
	state.Role = role

	return state, nil
}

func (s *Store) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, _, err := s.storage.Load(ctx, KeyToken)

	return token, err
}

func (s *Store) User(ctx context.Context) (*model.User, error) {
	state, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return state.User, nil
}

func (s *Store) IsAuthenticated(ctx context.Context) bool {
	state, err := s.Snapshot(ctx)
	if err != nil {
		s.logger.Error("failed to read session", zap.Error(err))
		return false
	}

	return state.Authenticated
}

func (s *Store) Role(ctx context.Context) (string, error) {
	state, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	return state.Role, nil
}

// SessionExpired reports whether the stored session can no longer be used:
// there is no token, or the token carries an expiry that has passed.
func (s *Store) SessionExpired(ctx context.Context, now time.Time) bool {
	token, err := s.Token(ctx)
	if err != nil || token == "" {
		return true
	}

	info, err := InspectToken(token)
	if err != nil {
		return false
	}

	return info.ExpiredAt(now)
}

// Subscribe registers fn for auth-state changes made through this store.
// The returned function removes the registration.
func (s *Store) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextListenerId
	s.nextListenerId++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()

		delete(s.listeners, id)
	}
}

// Refresh re-derives the auth state from storage and notifies listeners.
func (s *Store) Refresh(ctx context.Context) error {
	state, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	s.listenersMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}
	s.listenersMu.Unlock()

	for _, listener := range listeners {
		listener(state)
	}

	return nil
}
