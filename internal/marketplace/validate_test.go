package marketplace

import (
	"testing"
	"time"

	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupForm_Validate(t *testing.T) {
	valid := SignupForm{
		Name:            "Asha",
		Email:           "asha@example.com",
		Phone:           "9999999999",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Location:        "Pune",
	}

	assert.NoError(t, valid.Validate())

	t.Run("missing field", func(t *testing.T) {
		form := valid
		form.Location = "  "

		err := form.Validate()
		assert.Equal(t, ierr.ErrorCodeInvalidArgument, ierr.CodeOf(err))
		assert.Equal(t, "Please fill in all fields", ierr.MessageOf(err))
	})

	t.Run("password mismatch", func(t *testing.T) {
		form := valid
		form.ConfirmPassword = "secret2"

		assert.Equal(t, "Passwords do not match", ierr.MessageOf(form.Validate()))
	})

	t.Run("short password", func(t *testing.T) {
		form := valid
		form.Password = "abc"
		form.ConfirmPassword = "abc"

		assert.Equal(t, "Password must be at least 6 characters long", ierr.MessageOf(form.Validate()))
	})
}

func TestJobDraft(t *testing.T) {
	draft := JobDraft{Title: "Plumbing Repair", Location: "Pune", Salary: "₹800/day"}.withDefaults()

	assert.NoError(t, draft.Validate())
	assert.Equal(t, "Construction", draft.Category)
	assert.Equal(t, "Daily Work", draft.Type)
	assert.Equal(t, "beginner", draft.ExperienceLevel)

	assert.Equal(t, "Please fill all required fields", ierr.MessageOf(JobDraft{Title: "x", Location: "y"}.Validate()))
}

func TestRatingDraft(t *testing.T) {
	application := model.Application{
		Id:        "a1",
		Job:       &model.JobRef{Id: "j1", Title: "Painting"},
		Applicant: &model.Worker{Id: "w1", Name: "Ravi"},
		Status:    model.ApplicationStatusAccepted,
	}

	rating, err := RatingDraft{Application: application, Stars: 4, Review: "  good work "}.Rating()

	require.NoError(t, err)
	assert.Equal(t, model.Rating{RatedUserId: "w1", Rating: 4, Review: "good work", ApplicationId: "a1", JobId: "j1"}, rating)

	_, err = RatingDraft{Application: application}.Rating()
	assert.Equal(t, "Please select a rating", ierr.MessageOf(err))

	_, err = RatingDraft{Application: application, Stars: 6}.Rating()
	assert.Equal(t, ierr.ErrorCodeInvalidArgument, ierr.CodeOf(err))

	_, err = RatingDraft{Application: model.Application{Applicant: application.Applicant}, Stars: 3}.Rating()
	assert.Equal(t, "Application ID not found", ierr.MessageOf(err))
}

func TestPaymentConfirmation(t *testing.T) {
	paidAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("cash needs no transaction id", func(t *testing.T) {
		body, err := PaymentConfirmation{Method: model.PaymentMethodCash}.body(paidAt)

		require.NoError(t, err)
		assert.Nil(t, body.TransactionId)
		assert.Equal(t, paidAt, body.PaidAt)
	})

	t.Run("upi needs transaction id", func(t *testing.T) {
		err := PaymentConfirmation{Method: model.PaymentMethodUPI, TransactionId: " "}.Validate()

		assert.Equal(t, "Please enter transaction ID/reference number", ierr.MessageOf(err))
	})

	t.Run("bank transfer trims transaction id", func(t *testing.T) {
		body, err := PaymentConfirmation{Method: model.PaymentMethodBankTransfer, TransactionId: " 123456789012 "}.body(paidAt)

		require.NoError(t, err)
		require.NotNil(t, body.TransactionId)
		assert.Equal(t, "123456789012", *body.TransactionId)
	})

	t.Run("unknown method", func(t *testing.T) {
		assert.Error(t, PaymentConfirmation{Method: "cheque", TransactionId: "1"}.Validate())
	})
}

func TestUPILink(t *testing.T) {
	payment := model.Payment{
		Amount: 1500,
		Worker: &model.Worker{Name: "Ravi Kumar"},
		WorkerBankAccount: &model.BankAccount{
			UpiId: "ravi@upi",
		},
	}

	link, err := UPILink(payment, "Payment for Painting")

	require.NoError(t, err)
	assert.Equal(t, "upi://pay?pa=ravi@upi&pn=Ravi%20Kumar&am=1500&cu=INR&tn=Payment%20for%20Painting", link)

	_, err = UPILink(model.Payment{Amount: 10}, "x")
	assert.Equal(t, "Worker has not added UPI ID", ierr.MessageOf(err))
}
