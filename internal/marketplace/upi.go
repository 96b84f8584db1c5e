package marketplace

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goevery/gigboard/internal/model"
)

// UPILink builds the upi://pay deep link that opens a UPI app with the
// payment prefilled.
func UPILink(payment model.Payment, note string) (string, error) {
	if payment.WorkerBankAccount == nil || payment.WorkerBankAccount.UpiId == "" {
		return "", invalid("Worker has not added UPI ID")
	}

	name := payment.WorkerBankAccount.AccountHolderName
	if name == "" {
		name = payment.WorkerName()
	}

	return "upi://pay?pa=" + payment.WorkerBankAccount.UpiId +
		"&pn=" + encodeComponent(name) +
		"&am=" + strconv.FormatFloat(payment.Amount, 'f', -1, 64) +
		"&cu=INR" +
		"&tn=" + encodeComponent(note), nil
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
