package model

import "time"

const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusCompleted = "completed"
)

type Application struct {
	Id        string    `json:"_id"`
	Job       *JobRef   `json:"job,omitempty"`
	JobId     string    `json:"jobId,omitempty"`
	Applicant *Worker   `json:"applicant,omitempty"`
	Status    string    `json:"status,omitempty"`
	AppliedAt time.Time `json:"appliedAt,omitzero"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// JobKey returns the id of the job the application belongs to, whether the
// backend populated the job or only sent its id.
func (a Application) JobKey() string {
	if a.Job != nil && a.Job.Id != "" {
		return a.Job.Id
	}

	return a.JobId
}

func (a Application) JobTitle() string {
	if a.Job == nil {
		return ""
	}

	return a.Job.Title
}

// Hired reports whether the worker was taken on for the job.
func (a Application) Hired() bool {
	return a.Status == ApplicationStatusAccepted || a.Status == ApplicationStatusCompleted
}

type Rating struct {
	RatedUserId   string `json:"ratedUserId"`
	Rating        int    `json:"rating"`
	Review        string `json:"review"`
	ApplicationId string `json:"applicationId"`
	JobId         string `json:"jobId,omitempty"`
}
