// Package receipt renders the confirmation text shown to a payer after
// a completed tip. The shape is a formatting contract: downstream
// surfaces pattern-match on it, so change it deliberately.
package receipt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/streamtip/streamtip-gobackend/internal/models"
)

const paidToLabel = "StreamTip Creator"

// Render produces the fixed M-PESA style confirmation for a completed
// transaction.
func Render(tx models.Transaction) string {
	phone := tx.PhoneNumber
	if phone == "" {
		phone = "XXXXXXXXX"
	}
	ts := tx.ResolvedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString("M-PESA\n")
	fmt.Fprintf(&b, "Transaction ID: %s\n", tx.MpesaReceipt)
	fmt.Fprintf(&b, "Amount: KES %s\n", FormatAmount(tx.Amount))
	fmt.Fprintf(&b, "Phone: %s\n", phone)
	fmt.Fprintf(&b, "Time: %s\n", ts.Format(models.TimeLayout))
	fmt.Fprintf(&b, "Paid to: %s\n", paidToLabel)
	b.WriteString("Status: Completed\n\n")
	b.WriteString("Thank you for using M-PESA")
	return b.String()
}

// FormatAmount renders a KES amount without trailing zeros, so whole
// amounts read as "50" rather than "50.000000".
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
