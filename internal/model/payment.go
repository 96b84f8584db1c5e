package model

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodUPI          = "upi"
	PaymentMethodCash         = "cash"
)

type BankAccount struct {
	AccountHolderName string `json:"accountHolderName,omitempty"`
	AccountNumber     string `json:"accountNumber,omitempty"`
	AccountType       string `json:"accountType,omitempty"`
	BankName          string `json:"bankName,omitempty"`
	BranchName        string `json:"branchName,omitempty"`
	IfscCode          string `json:"ifscCode,omitempty"`
	UpiId             string `json:"upiId,omitempty"`
}

type Payment struct {
	Id                string       `json:"_id"`
	Amount            float64      `json:"amount"`
	Status            string       `json:"status"`
	Worker            *Worker      `json:"worker,omitempty"`
	WorkerBankAccount *BankAccount `json:"workerBankAccount,omitempty"`
	Job               *JobRef      `json:"job,omitempty"`
	PaymentMethod     string       `json:"paymentMethod,omitempty"`
	TransactionId     string       `json:"transactionId,omitempty"`
	PaidAt            *time.Time   `json:"paidAt,omitempty"`
	CreatedAt         time.Time    `json:"createdAt,omitzero"`
}

func (p Payment) WorkerName() string {
	if p.Worker == nil {
		return ""
	}

	return p.Worker.Name
}
