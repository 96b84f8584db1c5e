package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goevery/gigboard/internal/api"
	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/model"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) {
	return string(s), nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestService(t *testing.T) {
	requests := map[string]int{}
	var lastBody map[string]any

	record := func(name string, r *http.Request) {
		requests[name]++
		lastBody = nil
		json.NewDecoder(r.Body).Decode(&lastBody)
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		record("login", r)
		writeJSON(w, http.StatusOK, map[string]any{"token": "t1", "user": map[string]any{"_id": "u1", "role": "owner"}})
	}).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		record("register", r)
		writeJSON(w, http.StatusCreated, map[string]any{"token": "t2", "user": map[string]any{"_id": "u2"}})
	}).Methods(http.MethodPost)
	router.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		record("createJob", r)
		writeJSON(w, http.StatusCreated, map[string]any{"_id": "j1", "title": lastBody["title"], "status": "active"})
	}).Methods(http.MethodPost)
	router.HandleFunc("/api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		record("deleteJob:"+mux.Vars(r)["id"], r)
		writeJSON(w, http.StatusOK, map[string]any{"message": "Job deleted"})
	}).Methods(http.MethodDelete)
	router.HandleFunc("/api/applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		record("patchApplication", r)
		writeJSON(w, http.StatusOK, map[string]any{"_id": mux.Vars(r)["id"], "status": lastBody["status"]})
	}).Methods(http.MethodPatch)
	router.HandleFunc("/api/payments/employer/pending", func(w http.ResponseWriter, r *http.Request) {
		record("payments", r)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"payments": []map[string]any{{"_id": "p1", "amount": 800, "status": "pending"}},
		})
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/payments/{id}/mark-paid", func(w http.ResponseWriter, r *http.Request) {
		record("markPaid", r)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"payment": map[string]any{"_id": mux.Vars(r)["id"], "amount": 800, "status": "completed", "paymentMethod": lastBody["paymentMethod"]},
		})
	}).Methods(http.MethodPut)

	server := httptest.NewServer(router)
	defer server.Close()

	client := api.NewClient(zap.NewNop(), server.URL, nil, staticTokens("t1"))
	service := NewService(client)
	service.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	ctx := context.Background()

	t.Run("login normalizes email", func(t *testing.T) {
		result, err := service.Login(ctx, "  Asha@Example.com ", "secret1")

		require.NoError(t, err)
		assert.Equal(t, "t1", result.Token)
		assert.Equal(t, "u1", result.User.Id)
		assert.Equal(t, "asha@example.com", lastBody["email"])
	})

	t.Run("register sends owner role", func(t *testing.T) {
		_, err := service.Register(ctx, SignupForm{
			Name: " Asha ", Email: "ASHA@example.com", Phone: "99", Password: "secret1", ConfirmPassword: "secret1", Location: "Pune",
		})

		require.NoError(t, err)
		assert.Equal(t, "owner", lastBody["role"])
		assert.Equal(t, "Asha", lastBody["name"])
	})

	t.Run("register validation short-circuits", func(t *testing.T) {
		before := requests["register"]

		_, err := service.Register(ctx, SignupForm{Name: "Asha"})

		assert.Equal(t, ierr.ErrorCodeInvalidArgument, ierr.CodeOf(err))
		assert.Equal(t, before, requests["register"])
	})

	t.Run("create job applies defaults", func(t *testing.T) {
		job, err := service.CreateJob(ctx, JobDraft{Title: "Plumbing Repair", Location: "Pune", Salary: "800"})

		require.NoError(t, err)
		assert.Equal(t, "j1", job.Id)
		assert.Equal(t, "Construction", lastBody["category"])
		assert.Equal(t, "Daily Work", lastBody["type"])
	})

	t.Run("create job validation short-circuits", func(t *testing.T) {
		before := requests["createJob"]

		_, err := service.CreateJob(ctx, JobDraft{Title: "Plumbing Repair"})

		assert.Error(t, err)
		assert.Equal(t, before, requests["createJob"])
	})

	t.Run("delete job", func(t *testing.T) {
		require.NoError(t, service.DeleteJob(ctx, "j1"))
		assert.Equal(t, 1, requests["deleteJob:j1"])
	})

	t.Run("update application status lowercases", func(t *testing.T) {
		application, err := service.UpdateApplicationStatus(ctx, "a1", "Accepted")

		require.NoError(t, err)
		assert.Equal(t, "accepted", lastBody["status"])
		assert.Equal(t, "accepted", application.Status)
	})

	t.Run("employer payments", func(t *testing.T) {
		payments, err := service.EmployerPayments(ctx)

		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, 800.0, payments[0].Amount)
	})

	t.Run("mark paid", func(t *testing.T) {
		payment, err := service.MarkPaymentPaid(ctx, "p1", PaymentConfirmation{Method: model.PaymentMethodCash})

		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
		assert.Equal(t, "cash", lastBody["paymentMethod"])
		assert.Nil(t, lastBody["transactionId"])
		assert.Equal(t, "2026-03-01T10:00:00Z", lastBody["paidAt"])
	})
}
