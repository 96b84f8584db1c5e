package view

import (
	"context"
	"errors"
	"time"

	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/marketplace"
	"github.com/goevery/gigboard/internal/model"
	"github.com/goevery/gigboard/internal/realtime"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ApplicationRow struct {
	Id            string
	Worker        string
	Job           string
	JobId         string
	Phone         string
	Experience    string
	Location      string
	Status        string
	Rating        float64
	Applied       time.Time
	Skills        []string
	ApplicantId   string
	VideoUrl      string
	VideoUploaded bool

	source model.Application
}

func (r ApplicationRow) Rateable() bool {
	return r.source.Hired()
}

type JobOption struct {
	Id    string
	Title string
}

type ApplicationsData struct {
	Applications []ApplicationRow
	Jobs         []JobOption
}

type Applications struct {
	*page[ApplicationsData]

	backend marketplace.Backend
}

func NewApplications(logger *zap.Logger, backend marketplace.Backend, conn realtime.Conn, notifier Notifier, identity Identity) *Applications {
	a := &Applications{backend: backend}
	a.page = newPage("applications", logger, conn, notifier, identity, a.fetch)

	return a
}

func (a *Applications) Open(ctx context.Context) error {
	err := a.open(ctx, []listener{
		a.reloadOn(realtime.EventApplicationNew, applicationToast),
		a.reloadOn(realtime.EventApplicationUpdated, nil),
		a.reloadOn(realtime.EventJobDeleted, nil),
	})
	if err != nil {
		a.notify(KindError, "Failed to load applications: %s", ierr.MessageOf(err))
	}

	return err
}

// FilterByJob returns the loaded applications for one job, or all of them
// when jobId is empty.
func (a *Applications) FilterByJob(jobId string) []ApplicationRow {
	rows := a.Snapshot().Data.Applications
	if jobId == "" {
		return rows
	}

	var filtered []ApplicationRow
	for _, row := range rows {
		if row.JobId == jobId {
			filtered = append(filtered, row)
		}
	}

	return filtered
}

func (a *Applications) Accept(ctx context.Context, applicationId string) error {
	return a.setStatus(ctx, applicationId, model.ApplicationStatusAccepted)
}

func (a *Applications) Reject(ctx context.Context, applicationId string) error {
	return a.setStatus(ctx, applicationId, model.ApplicationStatusRejected)
}

func (a *Applications) setStatus(ctx context.Context, applicationId, status string) error {
	if _, err := a.backend.UpdateApplicationStatus(ctx, applicationId, status); err != nil {
		a.notify(KindError, "Failed to update: %s", ierr.MessageOf(err))

		return err
	}

	a.notify(KindSuccess, "Application %s successfully!", status)
	a.refresh(ctx)

	return nil
}

// Rate submits a rating for the worker of an accepted or completed
// application.
func (a *Applications) Rate(ctx context.Context, applicationId string, stars int, review string) error {
	row, ok := a.find(applicationId)
	if !ok {
		err := ierr.New(ierr.ErrorCodeNotFound, errors.New("Application ID not found"))
		a.notify(KindError, "%s", ierr.MessageOf(err))

		return err
	}

	if !row.Rateable() {
		err := ierr.New(ierr.ErrorCodeFailedPrecondition, errors.New("Only hired workers can be rated"))
		a.notify(KindError, "%s", ierr.MessageOf(err))

		return err
	}

	err := a.backend.SubmitRating(ctx, marketplace.RatingDraft{
		Application: row.source,
		Stars:       stars,
		Review:      review,
	})
	if err != nil {
		a.notify(KindError, "%s", ierr.MessageOf(err))

		return err
	}

	a.notify(KindSuccess, "Thank you for your feedback!")
	a.refresh(ctx)

	return nil
}

func (a *Applications) find(applicationId string) (ApplicationRow, bool) {
	for _, row := range a.Snapshot().Data.Applications {
		if row.Id == applicationId {
			return row, true
		}
	}

	return ApplicationRow{}, false
}

func (a *Applications) refresh(ctx context.Context) {
	if err := a.Refresh(ctx); err != nil {
		a.logger.Warn("failed to refresh applications", zap.Error(err))
	}
}

func (a *Applications) fetch(ctx context.Context) (ApplicationsData, error) {
	var (
		applications []model.Application
		jobs         []model.Job
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		applications, err = a.backend.OwnerApplications(gctx)

		return err
	})

	g.Go(func() error {
		var err error
		jobs, err = a.backend.MyJobs(gctx)

		return err
	})

	if err := g.Wait(); err != nil {
		return ApplicationsData{}, err
	}

	data := ApplicationsData{
		Applications: make([]ApplicationRow, 0, len(applications)),
		Jobs:         make([]JobOption, 0, len(jobs)),
	}

	for _, application := range applications {
		data.Applications = append(data.Applications, applicationRow(application))
	}

	for _, job := range jobs {
		data.Jobs = append(data.Jobs, JobOption{job.Id, job.Title})
	}

	return data, nil
}

func applicationRow(application model.Application) ApplicationRow {
	row := ApplicationRow{
		Id:         application.Id,
		Worker:     "Unknown Worker",
		Job:        "Unknown Job",
		JobId:      application.JobKey(),
		Phone:      "N/A",
		Experience: "Not specified",
		Location:   "Not specified",
		Status:     application.Status,
		Applied:    application.AppliedAt,
		Skills:     []string{},
		source:     application,
	}

	if row.Status == "" {
		row.Status = model.ApplicationStatusPending
	}

	if row.Applied.IsZero() {
		row.Applied = application.CreatedAt
	}

	if title := application.JobTitle(); title != "" {
		row.Job = title
	}

	applicant := application.Applicant
	if applicant == nil {
		return row
	}

	row.ApplicantId = applicant.Id
	row.Rating = applicant.Rating
	row.VideoUrl = applicant.VideoUrl
	row.VideoUploaded = applicant.VideoUploaded
	row.Skills = applicantSkills(applicant)

	if applicant.Name != "" {
		row.Worker = applicant.Name
	}
	if applicant.Phone != "" {
		row.Phone = applicant.Phone
	}
	if applicant.Location != "" {
		row.Location = applicant.Location
	}

	switch {
	case applicant.Experience != "":
		row.Experience = applicant.Experience
	case applicant.ExperienceLevel != "":
		row.Experience = applicant.ExperienceLevel
	}

	return row
}

func applicantSkills(applicant *model.Worker) []string {
	seen := make(map[string]struct{})
	skills := []string{}

	for _, group := range [][]string{applicant.Skills, applicant.WorkCategories, applicant.WorkTypes} {
		for _, skill := range group {
			if skill == "" {
				continue
			}
			if _, ok := seen[skill]; ok {
				continue
			}

			seen[skill] = struct{}{}
			skills = append(skills, skill)
		}
	}

	return skills
}
