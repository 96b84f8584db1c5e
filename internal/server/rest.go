package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/goevery/gigboard/internal/auth"
	"github.com/goevery/gigboard/internal/broadcaster"
	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/model"
	"github.com/goevery/gigboard/internal/realtime"
	"github.com/gorilla/mux"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

type RESTServer struct {
	logger *zap.Logger

	store         *Store
	authenticator *auth.Authenticator
	registry      broadcaster.Registry
}

func NewRESTServer(
	logger *zap.Logger,
	store *Store,
	authenticator *auth.Authenticator,
	registry broadcaster.Registry,
) *RESTServer {
	return &RESTServer{
		logger,
		store,
		authenticator,
		registry,
	}
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *RESTServer) Register(router *mux.Router) {
	router.HandleFunc("/api/auth/register", s.register).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", s.login).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/forgot-password", s.forgotPassword).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/reset-password", s.resetPassword).Methods(http.MethodPost)

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(s.authenticate)

	protected.HandleFunc("/users/profile", s.profile).Methods(http.MethodGet)
	protected.HandleFunc("/users/profile", s.updateProfile).Methods(http.MethodPut)
	protected.HandleFunc("/jobs", s.createJob).Methods(http.MethodPost)
	protected.HandleFunc("/jobs/owner/my-jobs", s.myJobs).Methods(http.MethodGet)
	protected.HandleFunc("/jobs/{id}", s.updateJob).Methods(http.MethodPut)
	protected.HandleFunc("/jobs/{id}", s.deleteJob).Methods(http.MethodDelete)
	protected.HandleFunc("/jobs/{id}/apply", s.apply).Methods(http.MethodPost)
	protected.HandleFunc("/applications/owner/all", s.ownerApplications).Methods(http.MethodGet)
	protected.HandleFunc("/applications/{id}", s.updateApplicationStatus).Methods(http.MethodPatch)
	protected.HandleFunc("/ratings", s.submitRating).Methods(http.MethodPost)
	protected.HandleFunc("/payments/employer/pending", s.employerPayments).Methods(http.MethodGet)
	protected.HandleFunc("/payments/{id}/mark-paid", s.markPaid).Methods(http.MethodPut)
}

func (s *RESTServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			s.writeError(w, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("No token provided")))
			return
		}

		authentication, err := s.authenticator.AuthenticateJWT(token)
		if err != nil {
			s.writeError(w, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("Invalid token")))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithAuthentication(r.Context(), authentication)))
	})
}

func (s *RESTServer) register(w http.ResponseWriter, r *http.Request) {
	var registration Registration
	if !s.decode(w, r, &registration) {
		return
	}

	user, err := s.store.CreateAccount(registration)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeAuth(w, http.StatusCreated, user)
}

func (s *RESTServer) login(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decode(w, r, &credentials) {
		return
	}

	user, err := s.store.Authenticate(credentials.Email, credentials.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeAuth(w, http.StatusOK, user)
}

func (s *RESTServer) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email string `json:"email"`
	}
	if !s.decode(w, r, &request) {
		return
	}

	otp, err := s.store.IssueOTP(request.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("password reset otp issued",
		zap.String("email", request.Email),
		zap.String("otp", otp))

	s.writeJSON(w, http.StatusOK, messageResponse{"OTP sent to your email"})
}

func (s *RESTServer) resetPassword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email       string `json:"email"`
		Otp         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if !s.decode(w, r, &request) {
		return
	}

	if err := s.store.ResetPassword(request.Email, request.Otp, request.NewPassword); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{"Password reset successful"})
}

func (s *RESTServer) profile(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.User(subject(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

func (s *RESTServer) updateProfile(w http.ResponseWriter, r *http.Request) {
	var changes ProfileChanges
	if !s.decode(w, r, &changes) {
		return
	}

	user, err := s.store.UpdateUser(subject(r), changes)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

func (s *RESTServer) createJob(w http.ResponseWriter, r *http.Request) {
	var job model.Job
	if !s.decode(w, r, &job) {
		return
	}

	ownerId := subject(r)
	job, err := s.store.CreateJob(ownerId, job)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.push(ownerId, realtime.EventJobCreated, map[string]any{"job": job})
	s.writeJSON(w, http.StatusCreated, job)
}

func (s *RESTServer) myJobs(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.JobsByOwner(subject(r)))
}

func (s *RESTServer) updateJob(w http.ResponseWriter, r *http.Request) {
	var changes JobChanges
	if !s.decode(w, r, &changes) {
		return
	}

	ownerId := subject(r)
	job, err := s.store.UpdateJob(ownerId, mux.Vars(r)["id"], changes)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.push(ownerId, realtime.EventJobUpdated, map[string]any{"job": job})
	s.writeJSON(w, http.StatusOK, job)
}

func (s *RESTServer) deleteJob(w http.ResponseWriter, r *http.Request) {
	ownerId := subject(r)
	jobId := mux.Vars(r)["id"]

	if err := s.store.DeleteJob(ownerId, jobId); err != nil {
		s.writeError(w, err)
		return
	}

	s.push(ownerId, realtime.EventJobDeleted, map[string]any{"jobId": jobId})
	s.writeJSON(w, http.StatusOK, messageResponse{"Job deleted successfully"})
}

func (s *RESTServer) apply(w http.ResponseWriter, r *http.Request) {
	application, ownerId, err := s.store.Apply(subject(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.push(ownerId, realtime.EventApplicationNew, map[string]any{"application": application})
	s.writeJSON(w, http.StatusCreated, application)
}

func (s *RESTServer) ownerApplications(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.ApplicationsByOwner(subject(r)))
}

func (s *RESTServer) updateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Status string `json:"status"`
	}
	if !s.decode(w, r, &request) {
		return
	}

	ownerId := subject(r)
	application, payment, err := s.store.UpdateApplicationStatus(ownerId, mux.Vars(r)["id"], request.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.push(ownerId, realtime.EventApplicationUpdated, map[string]any{"application": application})
	if payment != nil {
		s.push(ownerId, realtime.EventPaymentInitiated, map[string]any{"payment": payment})
	}

	s.writeJSON(w, http.StatusOK, application)
}

func (s *RESTServer) submitRating(w http.ResponseWriter, r *http.Request) {
	var rating model.Rating
	if !s.decode(w, r, &rating) {
		return
	}

	if err := s.store.SubmitRating(subject(r), rating); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, messageResponse{"Rating submitted successfully"})
}

func (s *RESTServer) employerPayments(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"payments": s.store.PaymentsByEmployer(subject(r)),
	})
}

func (s *RESTServer) markPaid(w http.ResponseWriter, r *http.Request) {
	var receipt PaymentReceipt
	if !s.decode(w, r, &receipt) {
		return
	}

	ownerId := subject(r)
	payment, err := s.store.MarkPaid(ownerId, mux.Vars(r)["id"], receipt)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.push(ownerId, realtime.EventPaymentCompleted, map[string]any{"payment": payment})
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"payment": payment,
	})
}

func (s *RESTServer) push(userId, event string, payload any) {
	s.registry.Broadcast(broadcaster.Message{
		Id:      gonanoid.Must(),
		UserId:  userId,
		Event:   event,
		Payload: payload,
	})
}

func (s *RESTServer) writeAuth(w http.ResponseWriter, status int, user model.User) {
	token, err := s.authenticator.Issue(user.Id, user.Role, s.store.now())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, status, authResponse{token, user})
}

func (s *RESTServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid request body")))
		return false
	}

	return true
}

func (s *RESTServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *RESTServer) writeError(w http.ResponseWriter, err error) {
	var handlerErr ierr.Error
	if !errors.As(err, &handlerErr) {
		s.logger.Error("error in rest handler", zap.Error(err))

		handlerErr = ierr.New(ierr.ErrorCodeInternal, errors.New("internal error"))
	}

	s.writeJSON(w, statusFor(handlerErr.Code), errorResponse{handlerErr.Message})
}

func statusFor(code ierr.ErrorCode) int {
	switch code {
	case ierr.ErrorCodeInvalidArgument, ierr.ErrorCodeFailedPrecondition:
		return http.StatusBadRequest
	case ierr.ErrorCodeUnauthenticated:
		return http.StatusUnauthorized
	case ierr.ErrorCodePermissionDenied:
		return http.StatusForbidden
	case ierr.ErrorCodeNotFound:
		return http.StatusNotFound
	case ierr.ErrorCodeAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func subject(r *http.Request) string {
	authentication, ok := auth.AuthenticationFromContext(r.Context())
	if !ok {
		return ""
	}

	return authentication.Subject
}
