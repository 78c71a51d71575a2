// Package reference generates the human-facing identifiers printed on orders,
// invoices, receipts, complaints and refunds.
package reference

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Prefix identifies the kind of document a reference belongs to.
type Prefix string

const (
	Order         Prefix = "CMD"
	Invoice       Prefix = "FACT"
	Receipt       Prefix = "RECU"
	Complaint     Prefix = "RECL"
	Refund        Prefix = "REMB"
	RefundReceipt Prefix = "RECUREMB"
)

const suffixLen = 12

// New returns "<PREFIX>-<12 upper-case hex chars>".
func New(p Prefix) string {
	buf := make([]byte, suffixLen/2)
	if _, err := rand.Read(buf); err != nil {
		id := uuid.New()
		copy(buf, id[:suffixLen/2])
	}
	return string(p) + "-" + strings.ToUpper(hex.EncodeToString(buf))
}

// HasPrefix reports whether ref was produced for the given prefix.
func HasPrefix(ref string, p Prefix) bool {
	head, tail, ok := strings.Cut(ref, "-")
	if !ok || head != string(p) || len(tail) != suffixLen {
		return false
	}
	for _, r := range tail {
		if !(r >= '0' && r <= '9') && !(r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}
