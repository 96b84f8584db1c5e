package view

import (
	"context"
	"errors"
	"time"

	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/marketplace"
	"github.com/goevery/gigboard/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSessionExpired is returned when the stored credentials are missing or
// rejected. The session has been cleared and the user must log in again.
var ErrSessionExpired = errors.New("session expired, please login again")

type ProfileStats struct {
	ActiveJobs   int
	Hires        int
	Applications int
	Rating       float64
	Reviews      int
}

type ProfileData struct {
	User  model.User
	Stats ProfileStats
}

type Profile struct {
	*Loader[ProfileData]

	logger   *zap.Logger
	backend  marketplace.Backend
	sessions Session
	notifier Notifier
	now      func() time.Time
}

func NewProfile(logger *zap.Logger, backend marketplace.Backend, sessions Session, notifier Notifier) *Profile {
	logger = logger.With(zap.String("view", "profile"))

	p := &Profile{
		logger:   logger,
		backend:  backend,
		sessions: sessions,
		notifier: notifier,
		now:      time.Now,
	}
	p.Loader = NewLoader(logger, p.fetch)

	return p
}

func (p *Profile) Open(ctx context.Context) error {
	if p.sessions.SessionExpired(ctx, p.now()) {
		return p.expire(ctx)
	}

	if err := p.Load(ctx); err != nil {
		if ierr.IsUnauthenticated(err) {
			return p.expire(ctx)
		}

		p.notifier.Notify(Notification{"Failed to load profile data. " + ierr.MessageOf(err), KindError})

		return err
	}

	return nil
}

func (p *Profile) Update(ctx context.Context, update marketplace.ProfileUpdate) (model.User, error) {
	user, err := p.backend.UpdateProfile(ctx, update)
	if err != nil {
		if ierr.IsUnauthenticated(err) {
			return model.User{}, p.expire(ctx)
		}

		p.notifier.Notify(Notification{"Failed to update profile: " + ierr.MessageOf(err), KindError})

		return model.User{}, err
	}

	token, err := p.sessions.Token(ctx)
	if err == nil && token != "" {
		if err := p.sessions.SetAuth(ctx, token, user); err != nil {
			p.logger.Warn("failed to store updated user", zap.Error(err))
		}
	}

	p.notifier.Notify(Notification{"Profile updated successfully!", KindSuccess})

	if err := p.Refresh(ctx); err != nil {
		p.logger.Warn("failed to refresh profile", zap.Error(err))
	}

	return user, nil
}

func (p *Profile) expire(ctx context.Context) error {
	p.logger.Info("session expired, clearing credentials")

	if err := p.sessions.ClearAuth(ctx); err != nil {
		p.logger.Error("failed to clear session", zap.Error(err))
	}

	p.notifier.Notify(Notification{"Session expired. Please login again.", KindError})

	return ErrSessionExpired
}

func (p *Profile) fetch(ctx context.Context) (ProfileData, error) {
	var (
		user         model.User
		jobs         []model.Job
		applications []model.Application
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		user, err = p.backend.Profile(gctx)

		return err
	})

	g.Go(func() error {
		var err error
		jobs, err = p.backend.MyJobs(gctx)

		return err
	})

	g.Go(func() error {
		var err error
		applications, err = p.backend.OwnerApplications(gctx)

		return err
	})

	if err := g.Wait(); err != nil {
		return ProfileData{}, err
	}

	data := ProfileData{
		User: user,
		Stats: ProfileStats{
			Applications: len(applications),
			Rating:       user.Rating,
			Reviews:      user.Reviews,
		},
	}

	for _, job := range jobs {
		if job.Status == model.JobStatusActive {
			data.Stats.ActiveJobs++
		}
	}

	for _, application := range applications {
		if application.Hired() {
			data.Stats.Hires++
		}
	}

	return data, nil
}
