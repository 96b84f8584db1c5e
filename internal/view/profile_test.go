package view

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/marketplace"
	"github.com/goevery/gigboard/internal/model"
	"github.com/goevery/gigboard/internal/persistence/memory"
	"github.com/goevery/gigboard/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func loggedIn(t *testing.T) *session.Store {
	t.Helper()

	sessions := session.NewStore(zap.NewNop(), memory.NewStorage())
	require.NoError(t, sessions.SetAuth(context.Background(), "opaque-token", model.User{Id: "u1", Name: "Asha"}))

	return sessions
}

func TestProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("computes stats", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("Profile", mock.Anything).Return(model.User{Id: "u1", Name: "Asha", Rating: 4.5, Reviews: 2}, nil)
		backend.On("MyJobs", mock.Anything).Return([]model.Job{
			{Id: "j1", Status: model.JobStatusActive},
			{Id: "j2", Status: model.JobStatusClosed},
		}, nil)
		backend.On("OwnerApplications", mock.Anything).Return([]model.Application{
			{Id: "a1", Status: model.ApplicationStatusAccepted},
			{Id: "a2", Status: model.ApplicationStatusCompleted},
			{Id: "a3", Status: model.ApplicationStatusRejected},
		}, nil)

		profile := NewProfile(zap.NewNop(), backend, loggedIn(t), &recordingNotifier{})
		defer profile.Close()

		require.NoError(t, profile.Open(ctx))

		assert.Equal(t, ProfileStats{
			ActiveJobs:   1,
			Hires:        2,
			Applications: 3,
			Rating:       4.5,
			Reviews:      2,
		}, profile.Snapshot().Data.Stats)
	})

	t.Run("missing token expires the session", func(t *testing.T) {
		backend := &mockBackend{}
		sessions := session.NewStore(zap.NewNop(), memory.NewStorage())

		profile := NewProfile(zap.NewNop(), backend, sessions, &recordingNotifier{})
		defer profile.Close()

		assert.ErrorIs(t, profile.Open(ctx), ErrSessionExpired)
		backend.AssertNotCalled(t, "Profile", mock.Anything)
	})

	t.Run("unauthorized response clears the session", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("Profile", mock.Anything).Return(nil, ierr.FromStatus(http.StatusUnauthorized, "Invalid token"))
		backend.On("MyJobs", mock.Anything).Return([]model.Job{}, nil)
		backend.On("OwnerApplications", mock.Anything).Return([]model.Application{}, nil)
		sessions := loggedIn(t)
		notifier := &recordingNotifier{}

		profile := NewProfile(zap.NewNop(), backend, sessions, notifier)
		defer profile.Close()

		assert.ErrorIs(t, profile.Open(ctx), ErrSessionExpired)
		assert.False(t, sessions.IsAuthenticated(ctx))
		assert.Equal(t, []string{"Session expired. Please login again."}, notifier.messages())
	})

	t.Run("update stores the new user", func(t *testing.T) {
		backend := &mockBackend{}
		update := marketplace.ProfileUpdate{Name: "Asha K", BusinessName: "Asha Builders"}
		backend.On("UpdateProfile", mock.Anything, update).Return(model.User{Id: "u1", Name: "Asha K", BusinessName: "Asha Builders"}, nil)
		backend.On("Profile", mock.Anything).Return(model.User{Id: "u1", Name: "Asha K"}, nil)
		backend.On("MyJobs", mock.Anything).Return([]model.Job{}, nil)
		backend.On("OwnerApplications", mock.Anything).Return([]model.Application{}, nil)
		sessions := loggedIn(t)

		profile := NewProfile(zap.NewNop(), backend, sessions, &recordingNotifier{})
		profile.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
		defer profile.Close()

		_, err := profile.Update(ctx, update)
		require.NoError(t, err)

		user, err := sessions.User(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Asha Builders", user.BusinessName)
		token, err := sessions.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "opaque-token", token)
		assert.Equal(t, StateReady, profile.Snapshot().State)
	})
}
