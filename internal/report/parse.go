package report

import (
	"net/url"
	"strconv"
	"time"

	"github.com/mkarlsen/tradelens/internal/analytics"
)

const dateLayout = "2006-01-02"

// ParseFilterSpec validates query parameters and builds a FilterSpec.
// All malformed input is rejected here, before anything reaches the
// filter engine, and surfaces as an InvalidFilterError (a client error).
func ParseFilterSpec(query url.Values) (analytics.FilterSpec, error) {
	var spec analytics.FilterSpec

	if raw := query.Get("start_date"); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return spec, analytics.NewInvalidFilterError("start_date", "must be formatted as YYYY-MM-DD")
		}
		spec.StartDate = &day
	}

	if raw := query.Get("end_date"); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return spec, analytics.NewInvalidFilterError("end_date", "must be formatted as YYYY-MM-DD")
		}
		// End date is inclusive: cover the whole day.
		end := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		spec.EndDate = &end
	}

	spec.Symbol = query.Get("symbol")

	if raw := query.Get("side"); raw != "" {
		side, err := analytics.ParseSide(raw)
		if err != nil {
			return spec, analytics.NewInvalidFilterError("side", "must be one of: long, short")
		}
		spec.Side = side
	}

	status, err := analytics.ParseStatus(query.Get("status"))
	if err != nil {
		return spec, err
	}
	spec.Status = status

	if raw := query.Get("min_pnl"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return spec, analytics.NewInvalidFilterError("min_pnl", "must be a number")
		}
		spec.MinPnL = &v
	}

	if raw := query.Get("max_pnl"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return spec, analytics.NewInvalidFilterError("max_pnl", "must be a number")
		}
		spec.MaxPnL = &v
	}

	return spec, nil
}

// ParseGroupKey validates the group_by query parameter
func ParseGroupKey(query url.Values) (analytics.GroupKey, error) {
	raw := query.Get("group_by")
	if raw == "" {
		return "", analytics.NewInvalidFilterError("group_by", "is required")
	}
	return analytics.ParseGroupKey(raw)
}
