package server

import (
	"errors"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goevery/gigboard/internal/auth"
	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/model"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const otpTTL = 10 * time.Minute

var salaryAmount = regexp.MustCompile(`[0-9]+(\.[0-9]+)?`)

type account struct {
	user         model.User
	passwordHash string
	bankAccount  model.BankAccount
	ratings      []int

	otp       string
	otpExpiry time.Time
}

type application struct {
	id          string
	jobId       string
	applicantId string
	status      string
	appliedAt   time.Time
}

// Store keeps every dev backend record in memory. Ids are nanoids.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	accounts       map[string]*account
	accountByEmail map[string]string
	jobs           map[string]*model.Job
	applications   map[string]*application
	payments       map[string]*model.Payment
	ratedBy        map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		now:            time.Now,
		accounts:       make(map[string]*account),
		accountByEmail: make(map[string]string),
		jobs:           make(map[string]*model.Job),
		applications:   make(map[string]*application),
		payments:       make(map[string]*model.Payment),
		ratedBy:        make(map[string]struct{}),
	}
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Location string `json:"location"`
	UpiId    string `json:"upiId"`
}

func (s *Store) CreateAccount(registration Registration) (model.User, error) {
	email := strings.ToLower(strings.TrimSpace(registration.Email))
	if email == "" || registration.Password == "" || strings.TrimSpace(registration.Name) == "" {
		return model.User{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Name, email and password are required"))
	}

	role := registration.Role
	if role == "" {
		role = model.RoleWorker
	}

	if role != model.RoleOwner && role != model.RoleWorker {
		return model.User{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Invalid role"))
	}

	passwordHash, err := auth.HashPassword(registration.Password)
	if err != nil {
		return model.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accountByEmail[email]; ok {
		return model.User{}, ierr.New(ierr.ErrorCodeAlreadyExists, errors.New("User already exists"))
	}

	user := model.User{
		Id:       gonanoid.Must(),
		Name:     strings.TrimSpace(registration.Name),
		Email:    email,
		Phone:    strings.TrimSpace(registration.Phone),
		Role:     role,
		Location: strings.TrimSpace(registration.Location),
	}

	s.accounts[user.Id] = &account{
		user:         user,
		passwordHash: passwordHash,
		bankAccount: model.BankAccount{
			AccountHolderName: user.Name,
			UpiId:             strings.TrimSpace(registration.UpiId),
		},
	}
	s.accountByEmail[email] = user.Id

	return user, nil
}

func (s *Store) Authenticate(email, password string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.accountByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok || !auth.CheckPassword(s.accounts[id].passwordHash, password) {
		return model.User{}, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("Invalid credentials"))
	}

	return s.accounts[id].user, nil
}

// IssueOTP generates the 6-digit code a password reset must present.
func (s *Store) IssueOTP(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.accountByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return "", ierr.New(ierr.ErrorCodeNotFound, errors.New("User not found"))
	}

	otp, err := gonanoid.Generate("0123456789", 6)
	if err != nil {
		return "", err
	}

	s.accounts[id].otp = otp
	s.accounts[id].otpExpiry = s.now().Add(otpTTL)

	return otp, nil
}

func (s *Store) ResetPassword(email, otp, newPassword string) error {
	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.accountByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return ierr.New(ierr.ErrorCodeNotFound, errors.New("User not found"))
	}

	acc := s.accounts[id]
	if acc.otp == "" || acc.otp != otp || s.now().After(acc.otpExpiry) {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Invalid or expired OTP"))
	}

	acc.passwordHash = passwordHash
	acc.otp = ""

	return nil
}

func (s *Store) User(userId string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[userId]
	if !ok {
		return model.User{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("User not found"))
	}

	return acc.user, nil
}

type ProfileChanges struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Location     *string `json:"location"`
	Bio          *string `json:"bio"`
	BusinessName *string `json:"businessName"`
	BusinessType *string `json:"businessType"`
}

func (s *Store) UpdateUser(userId string, changes ProfileChanges) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userId]
	if !ok {
		return model.User{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("User not found"))
	}

	assign(&acc.user.Name, changes.Name)
	assign(&acc.user.Phone, changes.Phone)
	assign(&acc.user.Location, changes.Location)
	assign(&acc.user.Bio, changes.Bio)
	assign(&acc.user.BusinessName, changes.BusinessName)
	assign(&acc.user.BusinessType, changes.BusinessType)

	return acc.user, nil
}

func (s *Store) CreateJob(ownerId string, job model.Job) (model.Job, error) {
	if strings.TrimSpace(job.Title) == "" || strings.TrimSpace(job.Location) == "" || strings.TrimSpace(job.Salary) == "" {
		return model.Job{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Title, location and salary are required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job.Id = gonanoid.Must()
	job.Owner = ownerId
	job.Status = model.JobStatusActive
	job.Applicants = nil
	job.CreatedAt = s.now()

	s.jobs[job.Id] = &job

	return job, nil
}

// JobsByOwner returns the owner's jobs, newest first.
func (s *Store) JobsByOwner(ownerId string) []model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := []model.Job{}
	for _, job := range s.jobs {
		if job.Owner == ownerId {
			jobs = append(jobs, s.jobViewLocked(job))
		}
	}

	slices.SortFunc(jobs, func(a, b model.Job) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return jobs
}

type JobChanges struct {
	Title       *string `json:"title"`
	Location    *string `json:"location"`
	Salary      *string `json:"salary"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (s *Store) UpdateJob(ownerId, jobId string, changes JobChanges) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.ownedJobLocked(ownerId, jobId)
	if err != nil {
		return model.Job{}, err
	}

	if changes.Status != nil && *changes.Status != model.JobStatusActive && *changes.Status != model.JobStatusClosed {
		return model.Job{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Invalid job status"))
	}

	assign(&job.Title, changes.Title)
	assign(&job.Location, changes.Location)
	assign(&job.Salary, changes.Salary)
	assign(&job.Description, changes.Description)
	assign(&job.Status, changes.Status)

	return s.jobViewLocked(job), nil
}

// DeleteJob removes the job together with its applications.
func (s *Store) DeleteJob(ownerId, jobId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedJobLocked(ownerId, jobId); err != nil {
		return err
	}

	delete(s.jobs, jobId)
	for id, app := range s.applications {
		if app.jobId == jobId {
			delete(s.applications, id)
		}
	}

	return nil
}

// Apply records a worker's application and returns it populated, along with
// the owner of the job.
func (s *Store) Apply(workerId, jobId string) (model.Application, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	worker, ok := s.accounts[workerId]
	if !ok || worker.user.Role != model.RoleWorker {
		return model.Application{}, "", ierr.New(ierr.ErrorCodePermissionDenied, errors.New("Only workers can apply"))
	}

	job, ok := s.jobs[jobId]
	if !ok {
		return model.Application{}, "", ierr.New(ierr.ErrorCodeNotFound, errors.New("Job not found"))
	}

	if job.Status != model.JobStatusActive {
		return model.Application{}, "", ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Job is not accepting applications"))
	}

	for _, app := range s.applications {
		if app.jobId == jobId && app.applicantId == workerId {
			return model.Application{}, "", ierr.New(ierr.ErrorCodeAlreadyExists, errors.New("Already applied"))
		}
	}

	app := &application{
		id:          gonanoid.Must(),
		jobId:       jobId,
		applicantId: workerId,
		status:      model.ApplicationStatusPending,
		appliedAt:   s.now(),
	}
	s.applications[app.id] = app

	return s.applicationViewLocked(app), job.Owner, nil
}

// ApplicationsByOwner returns every application to the owner's jobs, newest
// first.
func (s *Store) ApplicationsByOwner(ownerId string) []model.Application {
	s.mu.RLock()
	defer s.mu.RUnlock()

	applications := []model.Application{}
	for _, app := range s.applications {
		if job, ok := s.jobs[app.jobId]; ok && job.Owner == ownerId {
			applications = append(applications, s.applicationViewLocked(app))
		}
	}

	slices.SortFunc(applications, func(a, b model.Application) int {
		return b.AppliedAt.Compare(a.AppliedAt)
	})

	return applications
}

// UpdateApplicationStatus moves the application to status. Accepting it
// opens a pending payment for the worker, which is returned as well.
func (s *Store) UpdateApplicationStatus(ownerId, applicationId, status string) (model.Application, *model.Payment, error) {
	if status != model.ApplicationStatusAccepted && status != model.ApplicationStatusRejected &&
		status != model.ApplicationStatusCompleted {
		return model.Application{}, nil, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Invalid status"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[applicationId]
	if !ok {
		return model.Application{}, nil, ierr.New(ierr.ErrorCodeNotFound, errors.New("Application not found"))
	}

	job, err := s.ownedJobLocked(ownerId, app.jobId)
	if err != nil {
		return model.Application{}, nil, err
	}

	previous := app.status
	app.status = status

	var payment *model.Payment
	if status == model.ApplicationStatusAccepted && previous != model.ApplicationStatusAccepted {
		worker := s.workerLocked(app.applicantId)
		bankAccount := s.accounts[app.applicantId].bankAccount

		payment = &model.Payment{
			Id:                gonanoid.Must(),
			Amount:            parseSalary(job.Salary),
			Status:            model.PaymentStatusPending,
			Worker:            worker,
			WorkerBankAccount: &bankAccount,
			Job:               &model.JobRef{Id: job.Id, Title: job.Title},
			CreatedAt:         s.now(),
		}
		s.payments[payment.Id] = payment

		copied := *payment
		payment = &copied
	}

	return s.applicationViewLocked(app), payment, nil
}

// SubmitRating rates the worker of a hired application once.
func (s *Store) SubmitRating(ownerId string, rating model.Rating) error {
	if rating.Rating < 1 || rating.Rating > 5 {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Rating must be between 1 and 5"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[rating.ApplicationId]
	if !ok {
		return ierr.New(ierr.ErrorCodeNotFound, errors.New("Application not found"))
	}

	if _, err := s.ownedJobLocked(ownerId, app.jobId); err != nil {
		return err
	}

	if app.status != model.ApplicationStatusAccepted && app.status != model.ApplicationStatusCompleted {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Only hired workers can be rated"))
	}

	if _, ok := s.ratedBy[app.id]; ok {
		return ierr.New(ierr.ErrorCodeAlreadyExists, errors.New("Already rated"))
	}

	worker := s.accounts[app.applicantId]
	worker.ratings = append(worker.ratings, rating.Rating)

	total := 0
	for _, r := range worker.ratings {
		total += r
	}
	worker.user.Rating = float64(total) / float64(len(worker.ratings))
	worker.user.Reviews = len(worker.ratings)

	s.ratedBy[app.id] = struct{}{}

	return nil
}

// PaymentsByEmployer returns the payments for the owner's jobs, newest first.
func (s *Store) PaymentsByEmployer(ownerId string) []model.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payments := []model.Payment{}
	for _, payment := range s.payments {
		if job, ok := s.jobs[payment.Job.Id]; ok && job.Owner == ownerId {
			payments = append(payments, *payment)
		}
	}

	slices.SortFunc(payments, func(a, b model.Payment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return payments
}

type PaymentReceipt struct {
	PaymentMethod string     `json:"paymentMethod"`
	TransactionId *string    `json:"transactionId"`
	PaidAt        *time.Time `json:"paidAt"`
}

func (s *Store) MarkPaid(ownerId, paymentId string, receipt PaymentReceipt) (model.Payment, error) {
	switch receipt.PaymentMethod {
	case model.PaymentMethodBankTransfer, model.PaymentMethodUPI:
		if receipt.TransactionId == nil || strings.TrimSpace(*receipt.TransactionId) == "" {
			return model.Payment{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Transaction ID is required"))
		}
	case model.PaymentMethodCash:
	default:
		return model.Payment{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Invalid payment method"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payment, ok := s.payments[paymentId]
	if !ok {
		return model.Payment{}, ierr.New(ierr.ErrorCodeNotFound, errors.New("Payment not found"))
	}

	if _, err := s.ownedJobLocked(ownerId, payment.Job.Id); err != nil {
		return model.Payment{}, err
	}

	if payment.Status == model.PaymentStatusCompleted {
		return model.Payment{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Payment already completed"))
	}

	paidAt := s.now()
	if receipt.PaidAt != nil {
		paidAt = *receipt.PaidAt
	}

	payment.Status = model.PaymentStatusCompleted
	payment.PaymentMethod = receipt.PaymentMethod
	payment.PaidAt = &paidAt
	if receipt.TransactionId != nil {
		payment.TransactionId = strings.TrimSpace(*receipt.TransactionId)
	}

	return *payment, nil
}

// IMPORTANT: It must be called only when a lock is already held.
func (s *Store) ownedJobLocked(ownerId, jobId string) (*model.Job, error) {
	job, ok := s.jobs[jobId]
	if !ok {
		return nil, ierr.New(ierr.ErrorCodeNotFound, errors.New("Job not found"))
	}

	if job.Owner != ownerId {
		return nil, ierr.New(ierr.ErrorCodePermissionDenied, errors.New("Not authorized"))
	}

	return job, nil
}

// IMPORTANT: It must be called only when a lock is already held.
func (s *Store) jobViewLocked(job *model.Job) model.Job {
	view := *job
	view.Applicants = nil

	for _, app := range s.applications {
		if app.jobId == job.Id {
			view.Applicants = append(view.Applicants, app.applicantId)
		}
	}

	return view
}

// IMPORTANT: It must be called only when a lock is already held.
func (s *Store) applicationViewLocked(app *application) model.Application {
	view := model.Application{
		Id:        app.id,
		JobId:     app.jobId,
		Applicant: s.workerLocked(app.applicantId),
		Status:    app.status,
		AppliedAt: app.appliedAt,
		CreatedAt: app.appliedAt,
	}

	if job, ok := s.jobs[app.jobId]; ok {
		view.Job = &model.JobRef{Id: job.Id, Title: job.Title}
	}

	return view
}

// IMPORTANT: It must be called only when a lock is already held.
func (s *Store) workerLocked(userId string) *model.Worker {
	acc, ok := s.accounts[userId]
	if !ok {
		return nil
	}

	return &model.Worker{
		Id:       acc.user.Id,
		Name:     acc.user.Name,
		Phone:    acc.user.Phone,
		Location: acc.user.Location,
		Rating:   acc.user.Rating,
	}
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// parseSalary reads the first number in a free-form salary such as
// "₹1,200/day".
func parseSalary(salary string) float64 {
	match := salaryAmount.FindString(strings.ReplaceAll(salary, ",", ""))
	if match == "" {
		return 0
	}

	amount, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}

	return amount
}
