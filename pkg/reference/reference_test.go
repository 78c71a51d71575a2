package reference

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProducesPrefixedHexReference(t *testing.T) {
	for _, p := range []Prefix{Order, Invoice, Receipt, Complaint, Refund, RefundReceipt} {
		ref := New(p)
		require.True(t, HasPrefix(ref, p), "reference %q for %s", ref, p)
		require.Len(t, ref, len(p)+1+suffixLen)
	}
}

func TestNewIsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 500; i++ {
		ref := New(Invoice)
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
	}
}

func TestHasPrefixRejectsMalformed(t *testing.T) {
	require.False(t, HasPrefix("CMD-abc", Order))
	require.False(t, HasPrefix("FACT-0123456789AB", Order))
	require.False(t, HasPrefix("CMD-0123456789ab", Order))
	require.False(t, HasPrefix("CMD0123456789AB", Order))
}
