package view

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

type Snapshot[T any] struct {
	State State
	Data  T
	Err   error
}

type FetchFunc[T any] func(ctx context.Context) (T, error)

// Loader holds the data of one view. Pushed events only invalidate it: each
// reload fetches the whole data set again and the last fetch to complete
// wins.
type Loader[T any] struct {
	logger *zap.Logger
	fetch  FetchFunc[T]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	snapshot  Snapshot[T]
	hasData   bool
	closed    bool
	observers map[int]func(Snapshot[T])
	nextId    int
}

func NewLoader[T any](logger *zap.Logger, fetch FetchFunc[T]) *Loader[T] {
	ctx, cancel := context.WithCancel(context.Background())

	return &Loader[T]{
		logger:    logger,
		fetch:     fetch,
		ctx:       ctx,
		cancel:    cancel,
		observers: make(map[int]func(Snapshot[T])),
	}
}

// Load performs the initial fetch. A failure moves the loader to the error
// state.
func (l *Loader[T]) Load(ctx context.Context) error {
	if !l.begin() {
		return context.Canceled
	}

	data, err := l.fetch(ctx)

	l.complete(data, err)

	return err
}

// Retry loads again after a failed initial load.
func (l *Loader[T]) Retry(ctx context.Context) error {
	return l.Load(ctx)
}

// Reload refetches in the background. A failure keeps the data on screen.
func (l *Loader[T]) Reload() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()

		return
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()

		if err := l.Refresh(l.ctx); err != nil {
			l.logger.Warn("reload failed, keeping previous data", zap.Error(err))
		}
	}()
}

// Refresh refetches and waits for the result.
func (l *Loader[T]) Refresh(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()

		return context.Canceled
	}
	l.mu.Unlock()

	data, err := l.fetch(ctx)

	l.complete(data, err)

	return err
}

func (l *Loader[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.snapshot
}

// OnChange registers fn to receive every new snapshot.
func (l *Loader[T]) OnChange(fn func(Snapshot[T])) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextId
	l.nextId++
	l.observers[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		delete(l.observers, id)
	}
}

// Wait blocks until background reloads have finished.
func (l *Loader[T]) Wait() {
	l.wg.Wait()
}

// Close discards the results of fetches still in flight.
func (l *Loader[T]) Close() {
	l.mu.Lock()
	l.closed = true
	l.observers = make(map[int]func(Snapshot[T]))
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
}

func (l *Loader[T]) begin() bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()

		return false
	}

	l.snapshot = Snapshot[T]{State: StateLoading, Data: l.snapshot.Data}
	snapshot, observers := l.snapshot, l.observersLocked()
	l.mu.Unlock()

	notify(observers, snapshot)

	return true
}

func (l *Loader[T]) complete(data T, err error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()

		return
	}

	switch {
	case err == nil:
		l.snapshot = Snapshot[T]{State: StateReady, Data: data}
		l.hasData = true
	case l.hasData:
		l.snapshot = Snapshot[T]{State: StateReady, Data: l.snapshot.Data, Err: err}
	default:
		l.snapshot = Snapshot[T]{State: StateError, Err: err}
	}

	snapshot, observers := l.snapshot, l.observersLocked()
	l.mu.Unlock()

	notify(observers, snapshot)
}

func (l *Loader[T]) observersLocked() []func(Snapshot[T]) {
	observers := make([]func(Snapshot[T]), 0, len(l.observers))
	for _, fn := range l.observers {
		observers = append(observers, fn)
	}

	return observers
}

func notify[T any](observers []func(Snapshot[T]), snapshot Snapshot[T]) {
	for _, fn := range observers {
		fn(snapshot)
	}
}
