package marketplace

import (
	"errors"
	"strings"
	"time"

	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/model"
)

const minPasswordLength = 6

func invalid(message string) error {
	return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New(message))
}

func validateLogin(email, password string) error {
	if email == "" || password == "" {
		return invalid("Please enter email and password")
	}

	return nil
}

type SignupForm struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
	Location        string
}

func (f SignupForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" ||
		strings.TrimSpace(f.Email) == "" ||
		strings.TrimSpace(f.Phone) == "" ||
		f.Password == "" ||
		f.ConfirmPassword == "" ||
		strings.TrimSpace(f.Location) == "" {
		return invalid("Please fill in all fields")
	}

	if f.Password != f.ConfirmPassword {
		return invalid("Passwords do not match")
	}

	if len(f.Password) < minPasswordLength {
		return invalid("Password must be at least 6 characters long")
	}

	return nil
}

type JobDraft struct {
	Title            string `json:"title"`
	Category         string `json:"category"`
	Type             string `json:"type"`
	Location         string `json:"location"`
	Salary           string `json:"salary"`
	Description      string `json:"description"`
	ExperienceLevel  string `json:"experienceLevel"`
	TrainingProvided bool   `json:"trainingProvided"`
}

func (d JobDraft) withDefaults() JobDraft {
	if d.Category == "" {
		d.Category = "Construction"
	}
	if d.Type == "" {
		d.Type = "Daily Work"
	}
	if d.ExperienceLevel == "" {
		d.ExperienceLevel = "beginner"
	}

	return d
}

func (d JobDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" ||
		strings.TrimSpace(d.Location) == "" ||
		strings.TrimSpace(d.Salary) == "" {
		return invalid("Please fill all required fields")
	}

	return nil
}

func validateApplicationStatus(status string) error {
	switch status {
	case model.ApplicationStatusPending,
		model.ApplicationStatusAccepted,
		model.ApplicationStatusRejected,
		model.ApplicationStatusCompleted:
		return nil
	default:
		return invalid("Unknown application status: " + status)
	}
}

type RatingDraft struct {
	Application model.Application
	Stars       int
	Review      string
}

func (d RatingDraft) Rating() (model.Rating, error) {
	if d.Stars == 0 {
		return model.Rating{}, invalid("Please select a rating")
	}

	if d.Stars < 1 || d.Stars > 5 {
		return model.Rating{}, invalid("Rating must be between 1 and 5")
	}

	if d.Application.Id == "" {
		return model.Rating{}, invalid("Application ID not found")
	}

	if d.Application.Applicant == nil || d.Application.Applicant.Id == "" {
		return model.Rating{}, invalid("Worker not found for this application")
	}

	return model.Rating{
		RatedUserId:   d.Application.Applicant.Id,
		Rating:        d.Stars,
		Review:        strings.TrimSpace(d.Review),
		ApplicationId: d.Application.Id,
		JobId:         d.Application.JobKey(),
	}, nil
}

type PaymentConfirmation struct {
	Method        string
	TransactionId string
}

type markPaidBody struct {
	PaymentMethod string    `json:"paymentMethod"`
	TransactionId *string   `json:"transactionId"`
	PaidAt        time.Time `json:"paidAt"`
}

func (c PaymentConfirmation) Validate() error {
	switch c.Method {
	case model.PaymentMethodBankTransfer, model.PaymentMethodUPI, model.PaymentMethodCash:
	default:
		return invalid("Unknown payment method: " + c.Method)
	}

	if c.Method != model.PaymentMethodCash && strings.TrimSpace(c.TransactionId) == "" {
		return invalid("Please enter transaction ID/reference number")
	}

	return nil
}

func (c PaymentConfirmation) body(paidAt time.Time) (markPaidBody, error) {
	if err := c.Validate(); err != nil {
		return markPaidBody{}, err
	}

	body := markPaidBody{
		PaymentMethod: c.Method,
		PaidAt:        paidAt,
	}

	if transactionId := strings.TrimSpace(c.TransactionId); transactionId != "" {
		body.TransactionId = &transactionId
	}

	return body, nil
}
