// Package metrics holds the prometheus collectors shared by the fulfillment
// binaries. Every constructor accepts a nil registerer and then returns a
// collector whose methods are no-ops.
package metrics

const namespace = "fulfillment"

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
