package view

import (
	"context"
	"errors"
	"sync"

	"github.com/goevery/gigboard/internal/ierr"
	"github.com/goevery/gigboard/internal/marketplace"
	"github.com/goevery/gigboard/internal/model"
	"github.com/goevery/gigboard/internal/realtime"
	"go.uber.org/zap"
)

type PaymentFilter string

const (
	PaymentFilterAll       PaymentFilter = "all"
	PaymentFilterPending   PaymentFilter = "pending"
	PaymentFilterCompleted PaymentFilter = "completed"
)

type PaymentStats struct {
	Total           int
	Pending         int
	Completed       int
	PendingAmount   float64
	CompletedAmount float64
}

type PaymentsData struct {
	Filter   PaymentFilter
	Payments []model.Payment
	Stats    PaymentStats
}

type Payments struct {
	*page[PaymentsData]

	backend marketplace.Backend

	mu     sync.Mutex
	filter PaymentFilter
}

func NewPayments(logger *zap.Logger, backend marketplace.Backend, conn realtime.Conn, notifier Notifier, identity Identity) *Payments {
	p := &Payments{
		backend: backend,
		filter:  PaymentFilterAll,
	}
	p.page = newPage("payments", logger, conn, notifier, identity, p.fetch)

	return p
}

func (p *Payments) Open(ctx context.Context) error {
	err := p.open(ctx, []listener{
		p.reloadOn(realtime.EventPaymentCompleted, toast(KindSuccess, "Payment processed successfully!")),
	})
	if err != nil {
		p.notify(KindError, "Failed to load payments")
	}

	return err
}

// SetFilter changes which payments are listed and reloads.
func (p *Payments) SetFilter(ctx context.Context, filter PaymentFilter) error {
	switch filter {
	case PaymentFilterAll, PaymentFilterPending, PaymentFilterCompleted:
	default:
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("unknown payment filter: "+string(filter)))
	}

	p.mu.Lock()
	p.filter = filter
	p.mu.Unlock()

	return p.Refresh(ctx)
}

func (p *Payments) MarkPaid(ctx context.Context, paymentId string, confirmation marketplace.PaymentConfirmation) (model.Payment, error) {
	payment, err := p.backend.MarkPaymentPaid(ctx, paymentId, confirmation)
	if err != nil {
		if isValidation(err) {
			p.notify(KindError, "%s", ierr.MessageOf(err))
		} else {
			p.notify(KindError, "Failed to confirm payment")
		}

		return model.Payment{}, err
	}

	p.notify(KindSuccess, "Payment marked as completed!")

	if err := p.Refresh(ctx); err != nil {
		p.logger.Warn("failed to refresh payments", zap.Error(err))
	}

	return payment, nil
}

// UPILink returns the deep link for paying a listed payment through a UPI
// app.
func (p *Payments) UPILink(paymentId string) (string, error) {
	for _, payment := range p.Snapshot().Data.Payments {
		if payment.Id != paymentId {
			continue
		}

		note := "Payment"
		if payment.Job != nil && payment.Job.Title != "" {
			note = "Payment for " + payment.Job.Title
		}

		link, err := marketplace.UPILink(payment, note)
		if err != nil {
			p.notify(KindError, "%s", ierr.MessageOf(err))

			return "", err
		}

		p.notify(KindInfo, "Opening UPI app...")

		return link, nil
	}

	return "", ierr.New(ierr.ErrorCodeNotFound, errors.New("payment not found: "+paymentId))
}

func (p *Payments) fetch(ctx context.Context) (PaymentsData, error) {
	payments, err := p.backend.EmployerPayments(ctx)
	if err != nil {
		return PaymentsData{}, err
	}

	p.mu.Lock()
	filter := p.filter
	p.mu.Unlock()

	return summarizePayments(payments, filter), nil
}

func summarizePayments(payments []model.Payment, filter PaymentFilter) PaymentsData {
	data := PaymentsData{
		Filter:   filter,
		Payments: []model.Payment{},
		Stats:    PaymentStats{Total: len(payments)},
	}

	for _, payment := range payments {
		switch payment.Status {
		case model.PaymentStatusPending:
			data.Stats.Pending++
			data.Stats.PendingAmount += payment.Amount
		case model.PaymentStatusCompleted:
			data.Stats.Completed++
			data.Stats.CompletedAmount += payment.Amount
		}

		if filter == PaymentFilterAll || string(filter) == payment.Status {
			data.Payments = append(data.Payments, payment)
		}
	}

	return data
}
