package view

import (
	"context"
	"errors"
	"testing"

	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/marketplace"
	"github.com/goevery/gigboard/internal/model"
	"github.com/goevery/gigboard/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func employerPayments() []model.Payment {
	return []model.Payment{
		{
			Id:                "p1",
			Amount:            800,
			Status:            model.PaymentStatusPending,
			Worker:            &model.Worker{Id: "w1", Name: "Ravi Kumar"},
			WorkerBankAccount: &model.BankAccount{UpiId: "ravi@upi"},
			Job:               &model.JobRef{Id: "j1", Title: "Plumbing Repair"},
		},
		{Id: "p2", Amount: 500, Status: model.PaymentStatusPending},
		{Id: "p3", Amount: 1200, Status: model.PaymentStatusCompleted},
	}
}

func TestSummarizePayments(t *testing.T) {
	data := summarizePayments(employerPayments(), PaymentFilterPending)

	assert.Equal(t, PaymentStats{
		Total:           3,
		Pending:         2,
		Completed:       1,
		PendingAmount:   1300,
		CompletedAmount: 1200,
	}, data.Stats)
	assert.Len(t, data.Payments, 2)

	assert.Len(t, summarizePayments(employerPayments(), PaymentFilterAll).Payments, 3)
	assert.Len(t, summarizePayments(employerPayments(), PaymentFilterCompleted).Payments, 1)
	assert.Empty(t, summarizePayments(nil, PaymentFilterAll).Payments)
}

func TestPayments(t *testing.T) {
	ctx := context.Background()

	newPayments := func(backend *mockBackend) (*Payments, *fakeConn, *recordingNotifier) {
		conn := newFakeConn()
		notifier := &recordingNotifier{}

		return NewPayments(zap.NewNop(), backend, conn, notifier, Identity{"u1", "owner"}), conn, notifier
	}

	t.Run("payment completed reloads", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("EmployerPayments", mock.Anything).Return(employerPayments(), nil)

		payments, conn, notifier := newPayments(backend)
		defer payments.Close()
		require.NoError(t, payments.Open(ctx))

		conn.push(realtime.PaymentCompleted{Payment: model.Payment{Id: "p1"}})
		conn.push(realtime.JobCreated{})
		payments.Wait()

		backend.AssertNumberOfCalls(t, "EmployerPayments", 2)
		assert.Equal(t, []string{"Payment processed successfully!"}, notifier.messages())
	})

	t.Run("load failure", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("EmployerPayments", mock.Anything).Return(nil, errors.New("unavailable"))

		payments, _, notifier := newPayments(backend)
		defer payments.Close()

		assert.Error(t, payments.Open(ctx))
		assert.Equal(t, StateError, payments.Snapshot().State)
		assert.Equal(t, []string{"Failed to load payments"}, notifier.messages())
	})

	t.Run("filter", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("EmployerPayments", mock.Anything).Return(employerPayments(), nil)

		payments, _, _ := newPayments(backend)
		defer payments.Close()
		require.NoError(t, payments.Open(ctx))

		require.NoError(t, payments.SetFilter(ctx, PaymentFilterCompleted))

		data := payments.Snapshot().Data
		assert.Equal(t, PaymentFilterCompleted, data.Filter)
		require.Len(t, data.Payments, 1)
		assert.Equal(t, "p3", data.Payments[0].Id)

		assert.Equal(t, ierr.ErrorCodeInvalidArgument, ierr.CodeOf(payments.SetFilter(ctx, "refunded")))
	})

	t.Run("mark paid", func(t *testing.T) {
		backend := &mockBackend{}
		cash := marketplace.PaymentConfirmation{Method: model.PaymentMethodCash}
		upi := marketplace.PaymentConfirmation{Method: model.PaymentMethodUPI}
		backend.On("EmployerPayments", mock.Anything).Return(employerPayments(), nil)
		backend.On("MarkPaymentPaid", mock.Anything, "p1", cash).Return(model.Payment{Id: "p1", Status: model.PaymentStatusCompleted}, nil)
		backend.On("MarkPaymentPaid", mock.Anything, "p2", upi).
			Return(nil, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("Please enter transaction ID/reference number")))
		backend.On("MarkPaymentPaid", mock.Anything, "p2", cash).Return(nil, errors.New("connection reset"))

		payments, _, notifier := newPayments(backend)
		defer payments.Close()
		require.NoError(t, payments.Open(ctx))

		payment, err := payments.MarkPaid(ctx, "p1", cash)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCompleted, payment.Status)

		_, err = payments.MarkPaid(ctx, "p2", upi)
		assert.Error(t, err)
		_, err = payments.MarkPaid(ctx, "p2", cash)
		assert.Error(t, err)

		backend.AssertNumberOfCalls(t, "EmployerPayments", 2)
		assert.Equal(t, []string{
			"Payment marked as completed!",
			"Please enter transaction ID/reference number",
			"Failed to confirm payment",
		}, notifier.messages())
	})

	t.Run("upi link", func(t *testing.T) {
		backend := &mockBackend{}
		backend.On("EmployerPayments", mock.Anything).Return(employerPayments(), nil)

		payments, _, notifier := newPayments(backend)
		defer payments.Close()
		require.NoError(t, payments.Open(ctx))

		link, err := payments.UPILink("p1")
		require.NoError(t, err)
		assert.Equal(t, "upi://pay?pa=ravi@upi&pn=Ravi%20Kumar&am=800&cu=INR&tn=Payment%20for%20Plumbing%20Repair", link)

		_, err = payments.UPILink("p2")
		assert.Error(t, err)

		_, err = payments.UPILink("p9")
		assert.Equal(t, ierr.ErrorCodeNotFound, ierr.CodeOf(err))

		assert.Equal(t, []string{"Opening UPI app...", "Worker has not added UPI ID"}, notifier.messages())
	})
}
