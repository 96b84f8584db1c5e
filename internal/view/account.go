package view

import (
	"context"

	"github.com/goevery/gigboard/internal/marketplace"
	"github.com/goevery/gigboard/internal/model"
	"github.com/goevery/gigboard/internal/realtime"
	"go.uber.org/zap"
)

// Account covers the flows that create or end a session.
type Account struct {
	logger   *zap.Logger
	backend  marketplace.Backend
	sessions Session
	conn     realtime.Conn
}

func NewAccount(logger *zap.Logger, backend marketplace.Backend, sessions Session, conn realtime.Conn) *Account {
	return &Account{
		logger.With(zap.String("view", "account")),
		backend,
		sessions,
		conn,
	}
}

func (a *Account) Login(ctx context.Context, email, password string) (model.User, error) {
	result, err := a.backend.Login(ctx, email, password)
	if err != nil {
		return model.User{}, err
	}

	return a.start(ctx, result)
}

func (a *Account) Signup(ctx context.Context, form marketplace.SignupForm) (model.User, error) {
	result, err := a.backend.Register(ctx, form)
	if err != nil {
		return model.User{}, err
	}

	return a.start(ctx, result)
}

func (a *Account) ForgotPassword(ctx context.Context, email string) error {
	return a.backend.ForgotPassword(ctx, email)
}

func (a *Account) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	return a.backend.ResetPassword(ctx, email, otp, newPassword)
}

// Logout clears the stored credentials and tears down the shared realtime
// connection.
func (a *Account) Logout(ctx context.Context) error {
	err := a.sessions.ClearAuth(ctx)

	a.conn.Disconnect()
	a.logger.Info("logged out")

	return err
}

func (a *Account) start(ctx context.Context, result marketplace.AuthResult) (model.User, error) {
	if err := a.sessions.SetAuth(ctx, result.Token, result.User); err != nil {
		return model.User{}, err
	}

	a.logger.Info("logged in", zap.String("userId", result.User.Id))

	return result.User, nil
}
