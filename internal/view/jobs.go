package view

import (
	"context"
	"time"

	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/marketplace"
	"github.com/goevery/gigboard/internal/model"
	"github.com/goevery/gigboard/internal/realtime"
	"go.uber.org/zap"
)

type JobRow struct {
	Id               string
	Title            string
	Category         string
	Type             string
	Location         string
	Salary           string
	Status           string
	Applicants       int
	Posted           string
	Description      string
	ExperienceLevel  string
	TrainingProvided bool
}

type Jobs struct {
	*page[[]JobRow]

	backend marketplace.Backend
}

func NewJobs(logger *zap.Logger, backend marketplace.Backend, conn realtime.Conn, notifier Notifier, identity Identity) *Jobs {
	j := &Jobs{backend: backend}
	j.page = newPage("jobs", logger, conn, notifier, identity, j.fetch)

	return j
}

func (j *Jobs) Open(ctx context.Context) error {
	return j.open(ctx, []listener{
		j.reloadOn(realtime.EventJobCreated, toast(KindSuccess, "New job posted successfully!")),
		j.reloadOn(realtime.EventJobUpdated, nil),
		j.reloadOn(realtime.EventJobDeleted, toast(KindInfo, "Job deleted successfully!")),
		j.reloadOn(realtime.EventApplicationNew, applicationToast),
	})
}

func (j *Jobs) Create(ctx context.Context, draft marketplace.JobDraft) (model.Job, error) {
	job, err := j.backend.CreateJob(ctx, draft)
	if err != nil {
		if isValidation(err) {
			j.notify(KindError, "%s", ierr.MessageOf(err))
		} else {
			j.notify(KindError, "Failed to create job: %s", ierr.MessageOf(err))
		}

		return model.Job{}, err
	}

	j.notify(KindSuccess, "Job posted successfully!")
	j.refresh(ctx)

	return job, nil
}

func (j *Jobs) Delete(ctx context.Context, jobId string) error {
	if err := j.backend.DeleteJob(ctx, jobId); err != nil {
		j.notify(KindError, "Failed to delete job: %s", ierr.MessageOf(err))

		return err
	}

	j.notify(KindSuccess, "Job deleted successfully")
	j.refresh(ctx)

	return nil
}

func (j *Jobs) refresh(ctx context.Context) {
	if err := j.Refresh(ctx); err != nil {
		j.logger.Warn("failed to refresh jobs", zap.Error(err))
	}
}

func (j *Jobs) fetch(ctx context.Context) ([]JobRow, error) {
	jobs, err := j.backend.MyJobs(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]JobRow, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, jobRow(job))
	}

	return rows, nil
}

func jobRow(job model.Job) JobRow {
	status := job.Status
	if status == "" {
		status = model.JobStatusActive
	}

	posted := "Recently"
	if !job.CreatedAt.IsZero() {
		posted = job.CreatedAt.Local().Format(time.DateOnly)
	}

	return JobRow{
		Id:               job.Id,
		Title:            job.Title,
		Category:         job.Category,
		Type:             job.Type,
		Location:         job.Location,
		Salary:           job.Salary,
		Status:           status,
		Applicants:       len(job.Applicants),
		Posted:           posted,
		Description:      job.Description,
		ExperienceLevel:  job.ExperienceLevel,
		TrainingProvided: job.TrainingProvided,
	}
}
