package reports

import (
	"net/http"
	"strings"
	"time"

	"github.com/equiptrade/fulfillment-backend/api/validators"
	internalreports "github.com/equiptrade/fulfillment-backend/internal/reports"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
)

var timeNowUTC = func() time.Time {
	return time.Now().UTC()
}

// resolveWindow reads either an explicit from/to range or a preset. Without
// either the report covers all time.
func resolveWindow(r *http.Request, now time.Time) (internalreports.Window, error) {
	start, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return internalreports.Window{}, err
	}
	end, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return internalreports.Window{}, err
	}
	if !start.IsZero() || !end.IsZero() {
		if !start.IsZero() && !end.IsZero() && end.Before(start) {
			return internalreports.Window{}, pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
		}
		return internalreports.Window{Start: start, End: end}, nil
	}

	preset := strings.TrimSpace(r.URL.Query().Get("preset"))
	if preset == "" || strings.EqualFold(preset, "all") {
		return internalreports.Window{}, nil
	}
	duration, ok := presetDuration(preset)
	if !ok {
		return internalreports.Window{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid preset")
	}
	return internalreports.Window{Start: now.Add(-duration), End: now}, nil
}

func presetDuration(value string) (time.Duration, bool) {
	switch strings.ToLower(value) {
	case "7d":
		return 7 * 24 * time.Hour, true
	case "30d":
		return 30 * 24 * time.Hour, true
	case "90d":
		return 90 * 24 * time.Hour, true
	case "365d":
		return 365 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
