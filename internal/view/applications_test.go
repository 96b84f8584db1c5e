package view

import (
	"context"
	"net/http"
	"testing"

	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/marketplace"
	"github.com/goevery/gigboard/internal/model"
	"github.com/goevery/gigboard/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ownerApplications() []model.Application {
	return []model.Application{
		{
			Id:     "a1",
			Job:    &model.JobRef{Id: "j1", Title: "Plumbing Repair"},
			Status: model.ApplicationStatusAccepted,
			Applicant: &model.Worker{
				Id:              "w1",
				Name:            "Ravi",
				Skills:          []string{"Plumbing", "Fitting"},
				WorkCategories:  []string{"Plumbing", "Construction"},
				WorkTypes:       []string{"Daily Work", ""},
				ExperienceLevel: "expert",
			},
		},
		{Id: "a2", JobId: "j2", Status: model.ApplicationStatusPending},
	}
}

func TestApplications(t *testing.T) {
	ctx := context.Background()

	newApplications := func(backend *mockBackend) (*Applications, *fakeConn, *recordingNotifier) {
		backend.On("OwnerApplications", mock.Anything).Return(ownerApplications(), nil)
		backend.On("MyJobs", mock.Anything).Return([]model.Job{{Id: "j1", Title: "Plumbing Repair"}, {Id: "j2", Title: "Tiling"}}, nil)

		conn := newFakeConn()
		notifier := &recordingNotifier{}
		applications := NewApplications(zap.NewNop(), backend, conn, notifier, Identity{"u1", "owner"})
		require.NoError(t, applications.Open(ctx))

		return applications, conn, notifier
	}

	t.Run("maps rows", func(t *testing.T) {
		applications, _, _ := newApplications(&mockBackend{})
		defer applications.Close()

		data := applications.Snapshot().Data
		require.Len(t, data.Applications, 2)
		assert.Equal(t, []JobOption{{"j1", "Plumbing Repair"}, {"j2", "Tiling"}}, data.Jobs)

		first := data.Applications[0]
		assert.Equal(t, "Ravi", first.Worker)
		assert.Equal(t, "expert", first.Experience)
		assert.Equal(t, []string{"Plumbing", "Fitting", "Construction", "Daily Work"}, first.Skills)
		assert.True(t, first.Rateable())

		second := data.Applications[1]
		assert.Equal(t, "Unknown Worker", second.Worker)
		assert.Equal(t, "Unknown Job", second.Job)
		assert.Equal(t, "j2", second.JobId)
		assert.Equal(t, "N/A", second.Phone)
		assert.False(t, second.Rateable())
	})

	t.Run("filter by job", func(t *testing.T) {
		applications, _, _ := newApplications(&mockBackend{})
		defer applications.Close()

		assert.Len(t, applications.FilterByJob(""), 2)
		filtered := applications.FilterByJob("j2")
		require.Len(t, filtered, 1)
		assert.Equal(t, "a2", filtered[0].Id)
		assert.Empty(t, applications.FilterByJob("j9"))
	})

	t.Run("reloads on events", func(t *testing.T) {
		backend := &mockBackend{}
		applications, conn, notifier := newApplications(backend)
		defer applications.Close()

		conn.push(realtime.ApplicationNew{Application: model.Application{Job: &model.JobRef{Title: "Tiling"}}})
		conn.push(realtime.ApplicationUpdated{})
		conn.push(realtime.JobDeleted{JobId: "j2"})
		conn.push(realtime.PaymentCompleted{})
		applications.Wait()

		backend.AssertNumberOfCalls(t, "OwnerApplications", 4)
		assert.Equal(t, []string{"New application received for Tiling!"}, notifier.messages())
	})

	t.Run("accept and reject", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("UpdateApplicationStatus", mock.Anything, "a2", model.ApplicationStatusAccepted).Return(model.Application{}, nil)
		backend.On("UpdateApplicationStatus", mock.Anything, "a1", model.ApplicationStatusRejected).
			Return(nil, ierr.FromStatus(http.StatusBadRequest, "Application already processed"))

		applications, _, notifier := newApplications(backend)
		defer applications.Close()

		require.NoError(t, applications.Accept(ctx, "a2"))
		assert.Error(t, applications.Reject(ctx, "a1"))

		backend.AssertNumberOfCalls(t, "OwnerApplications", 2)
		assert.Equal(t, []string{
			"Application accepted successfully!",
			"Failed to update: Application already processed",
		}, notifier.messages())
	})

	t.Run("rate", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("SubmitRating", mock.Anything, mock.MatchedBy(func(draft marketplace.RatingDraft) bool {
			return draft.Application.Id == "a1" && draft.Stars == 4 && draft.Review == "Good work"
		})).Return(nil)

		applications, _, notifier := newApplications(backend)
		defer applications.Close()

		require.NoError(t, applications.Rate(ctx, "a1", 4, "Good work"))
		assert.Equal(t, ierr.ErrorCodeFailedPrecondition, ierr.CodeOf(applications.Rate(ctx, "a2", 4, "")))
		assert.Equal(t, ierr.ErrorCodeNotFound, ierr.CodeOf(applications.Rate(ctx, "a9", 4, "")))

		backend.AssertNumberOfCalls(t, "SubmitRating", 1)
		assert.Equal(t, "Thank you for your feedback!", notifier.messages()[0])
	})
}
