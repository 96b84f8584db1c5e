package model

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	JobStatusActive = "active"
	JobStatusClosed = "closed"
)

type Job struct {
	Id               string    `json:"_id"`
	Title            string    `json:"title"`
	Category         string    `json:"category,omitempty"`
	Type             string    `json:"type,omitempty"`
	Location         string    `json:"location,omitempty"`
	Salary           string    `json:"salary,omitempty"`
	Description      string    `json:"description,omitempty"`
	ExperienceLevel  string    `json:"experienceLevel,omitempty"`
	TrainingProvided bool      `json:"trainingProvided"`
	Status           string    `json:"status,omitempty"`
	Owner            string    `json:"owner,omitempty"`
	Applicants       []string  `json:"applicants,omitempty"`
	CreatedAt        time.Time `json:"createdAt,omitzero"`
}

// JobRef is a job reference that the backend sends either as a bare id or as
// a populated job document.
type JobRef struct {
	Id    string `json:"_id"`
	Title string `json:"title,omitempty"`
}

func (r *JobRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = JobRef{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = JobRef{Id: id}
		return nil
	}

	type plain JobRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = JobRef(p)

	return nil
}
