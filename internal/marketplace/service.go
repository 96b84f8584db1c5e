package marketplace

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/goevery/gigboard/internal/api"
	"github.com/goevery/gigboard/internal/model"
)

// Backend is the set of marketplace calls the views depend on.
type Backend interface {
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Register(ctx context.Context, form SignupForm) (AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error

	Profile(ctx context.Context) (model.User, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) (model.User, error)

	MyJobs(ctx context.Context) ([]model.Job, error)
	CreateJob(ctx context.Context, draft JobDraft) (model.Job, error)
	DeleteJob(ctx context.Context, jobId string) error

	OwnerApplications(ctx context.Context) ([]model.Application, error)
	UpdateApplicationStatus(ctx context.Context, applicationId, status string) (model.Application, error)
	SubmitRating(ctx context.Context, draft RatingDraft) error

	EmployerPayments(ctx context.Context) ([]model.Payment, error)
	MarkPaymentPaid(ctx context.Context, paymentId string, confirmation PaymentConfirmation) (model.Payment, error)
}

type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type ProfileUpdate struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Location     string `json:"location"`
	Bio          string `json:"bio"`
	BusinessName string `json:"businessName"`
	BusinessType string `json:"businessType"`
}

type paymentsResponse struct {
	Success  bool            `json:"success"`
	Payments []model.Payment `json:"payments"`
}

type paymentResponse struct {
	Success bool          `json:"success"`
	Payment model.Payment `json:"payment"`
}

type Service struct {
	client *api.Client
	now    func() time.Time
}

func NewService(client *api.Client) *Service {
	return &Service{
		client,
		time.Now,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	if err := validateLogin(email, password); err != nil {
		return AuthResult{}, err
	}

	var result AuthResult
	err := s.client.Post(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, false, &result)

	return result, err
}

func (s *Service) Register(ctx context.Context, form SignupForm) (AuthResult, error) {
	if err := form.Validate(); err != nil {
		return AuthResult{}, err
	}

	var result AuthResult
	err := s.client.Post(ctx, "/api/auth/register", map[string]string{
		"name":     strings.TrimSpace(form.Name),
		"email":    normalizeEmail(form.Email),
		"phone":    strings.TrimSpace(form.Phone),
		"password": form.Password,
		"role":     model.RoleOwner,
		"location": strings.TrimSpace(form.Location),
	}, false, &result)

	return result, err
}

func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return invalid("Please enter your email")
	}

	return s.client.Post(ctx, "/api/auth/forgot-password", map[string]string{
		"email": email,
	}, false, nil)
}

func (s *Service) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	otp = strings.TrimSpace(otp)
	newPassword = strings.TrimSpace(newPassword)
	if otp == "" || newPassword == "" {
		return invalid("Please enter OTP and new password")
	}

	if len(newPassword) < minPasswordLength {
		return invalid("Password must be at least 6 characters")
	}

	return s.client.Post(ctx, "/api/auth/reset-password", map[string]string{
		"email":       normalizeEmail(email),
		"otp":         otp,
		"newPassword": newPassword,
	}, false, nil)
}

func (s *Service) Profile(ctx context.Context) (model.User, error) {
	var user model.User
	err := s.client.Get(ctx, "/api/users/profile", true, &user)

	return user, err
}

func (s *Service) UpdateProfile(ctx context.Context, update ProfileUpdate) (model.User, error) {
	var user model.User
	err := s.client.Put(ctx, "/api/users/profile", update, true, &user)

	return user, err
}

func (s *Service) MyJobs(ctx context.Context) ([]model.Job, error) {
	var jobs []model.Job
	err := s.client.Get(ctx, "/api/jobs/owner/my-jobs", true, &jobs)

	return jobs, err
}

func (s *Service) CreateJob(ctx context.Context, draft JobDraft) (model.Job, error) {
	draft = draft.withDefaults()
	if err := draft.Validate(); err != nil {
		return model.Job{}, err
	}

	var job model.Job
	err := s.client.Post(ctx, "/api/jobs", draft, true, &job)

	return job, err
}

func (s *Service) DeleteJob(ctx context.Context, jobId string) error {
	return s.client.Delete(ctx, "/api/jobs/"+url.PathEscape(jobId), true, nil)
}

func (s *Service) OwnerApplications(ctx context.Context) ([]model.Application, error) {
	var applications []model.Application
	err := s.client.Get(ctx, "/api/applications/owner/all", true, &applications)

	return applications, err
}

func (s *Service) UpdateApplicationStatus(ctx context.Context, applicationId, status string) (model.Application, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if err := validateApplicationStatus(status); err != nil {
		return model.Application{}, err
	}

	var application model.Application
	err := s.client.Patch(ctx, "/api/applications/"+url.PathEscape(applicationId), map[string]string{
		"status": status,
	}, true, &application)

	return application, err
}

func (s *Service) SubmitRating(ctx context.Context, draft RatingDraft) error {
	rating, err := draft.Rating()
	if err != nil {
		return err
	}

	return s.client.Post(ctx, "/api/ratings", rating, true, nil)
}

func (s *Service) EmployerPayments(ctx context.Context) ([]model.Payment, error) {
	var response paymentsResponse
	if err := s.client.Get(ctx, "/api/payments/employer/pending", true, &response); err != nil {
		return nil, err
	}

	if !response.Success {
		return nil, nil
	}

	return response.Payments, nil
}

func (s *Service) MarkPaymentPaid(ctx context.Context, paymentId string, confirmation PaymentConfirmation) (model.Payment, error) {
	body, err := confirmation.body(s.now())
	if err != nil {
		return model.Payment{}, err
	}

	var response paymentResponse
	err = s.client.Put(ctx, "/api/payments/"+url.PathEscape(paymentId)+"/mark-paid", body, true, &response)

	return response.Payment, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
