package view

import (
	"context"
	"time"

	"github.com/goevery/gigboard/internal/marketplace"
	"github.com/goevery/gigboard/internal/model"
	"github.com/goevery/gigboard/internal/realtime"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const recentJobsLimit = 6

type DashboardStats struct {
	ActiveJobs   int
	Applications int
}

type RecentJob struct {
	Id         string
	Title      string
	Category   string
	Location   string
	Salary     string
	Status     string
	Applicants int
	Posted     string
}

type DashboardData struct {
	Stats      DashboardStats
	RecentJobs []RecentJob
}

type Dashboard struct {
	*page[DashboardData]

	backend marketplace.Backend
	now     func() time.Time
}

func NewDashboard(logger *zap.Logger, backend marketplace.Backend, conn realtime.Conn, notifier Notifier, identity Identity) *Dashboard {
	d := &Dashboard{
		backend: backend,
		now:     time.Now,
	}
	d.page = newPage("dashboard", logger, conn, notifier, identity, d.fetch)

	return d
}

func (d *Dashboard) Open(ctx context.Context) error {
	return d.open(ctx, []listener{
		d.reloadOn(realtime.EventJobCreated, toast(KindSuccess, "New job posted!")),
		d.reloadOn(realtime.EventJobUpdated, nil),
		d.reloadOn(realtime.EventJobDeleted, toast(KindInfo, "Job deleted")),
		d.reloadOn(realtime.EventApplicationNew, applicationToast),
		d.reloadOn(realtime.EventApplicationUpdated, nil),
	})
}

func (d *Dashboard) fetch(ctx context.Context) (DashboardData, error) {
	var (
		jobs         []model.Job
		applications []model.Application
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		jobs, err = d.backend.MyJobs(gctx)

		return err
	})

	g.Go(func() error {
		var err error
		applications, err = d.backend.OwnerApplications(gctx)
		if err != nil {
			d.logger.Warn("failed to load applications, showing none", zap.Error(err))
			applications = nil
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return DashboardData{}, err
	}

	return summarizeDashboard(jobs, applications, d.now()), nil
}

func summarizeDashboard(jobs []model.Job, applications []model.Application, now time.Time) DashboardData {
	applicants := make(map[string]int)
	for _, application := range applications {
		applicants[application.JobKey()]++
	}

	data := DashboardData{
		Stats:      DashboardStats{Applications: len(applications)},
		RecentJobs: []RecentJob{},
	}

	for _, job := range jobs {
		if job.Status != model.JobStatusActive {
			continue
		}

		data.Stats.ActiveJobs++
		if len(data.RecentJobs) == recentJobsLimit {
			continue
		}

		data.RecentJobs = append(data.RecentJobs, RecentJob{
			Id:         job.Id,
			Title:      job.Title,
			Category:   job.Category,
			Location:   job.Location,
			Salary:     job.Salary,
			Status:     job.Status,
			Applicants: applicants[job.Id],
			Posted:     timeAgo(now, job.CreatedAt),
		})
	}

	return data
}
