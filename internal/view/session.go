package view

import (
	"context"
	"time"

	"github.com/goevery/gigboard/internal/model"
)

// Session is the credential store the account and profile views write to.
type Session interface {
	SetAuth(ctx context.Context, token string, user model.User) error
	ClearAuth(ctx context.Context) error
	Token(ctx context.Context) (string, error)
	SessionExpired(ctx context.Context, now time.Time) bool
}
