package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Status filters trades by whether they have been closed
type Status string

const (
	StatusAll    Status = "all"
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// ParseStatus converts a raw status string to a Status
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return StatusAll, nil
	case "open":
		return StatusOpen, nil
	case "closed":
		return StatusClosed, nil
	default:
		return "", NewInvalidFilterError("status", "must be one of: open, closed, all")
	}
}

// FilterSpec describes the predicates applied to a TradeSet.
// Unset (nil / empty) fields impose no constraint.
type FilterSpec struct {
	StartDate *time.Time // inclusive, compared against entry_time
	EndDate   *time.Time // inclusive, compared against entry_time
	Symbol    string     // exact match, case-insensitive
	Side      Side       // empty means both sides
	Status    Status     // zero value treated as all
	MinPnL    *float64   // closed trades only
	MaxPnL    *float64   // closed trades only
}

// Signature returns a stable hash of the spec, used as the cache key
// component. Two specs with identical constraints always hash the same.
func (s FilterSpec) Signature() string {
	var b strings.Builder

	writeField := func(name, value string) {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte(';')
	}

	if s.StartDate != nil {
		writeField("start", s.StartDate.UTC().Format(time.RFC3339Nano))
	}
	if s.EndDate != nil {
		writeField("end", s.EndDate.UTC().Format(time.RFC3339Nano))
	}
	if s.Symbol != "" {
		writeField("symbol", strings.ToUpper(strings.TrimSpace(s.Symbol)))
	}
	if s.Side != "" {
		writeField("side", string(s.Side))
	}
	if s.Status != "" && s.Status != StatusAll {
		writeField("status", string(s.Status))
	}
	if s.MinPnL != nil {
		writeField("min_pnl", strconv.FormatFloat(*s.MinPnL, 'f', -1, 64))
	}
	if s.MaxPnL != nil {
		writeField("max_pnl", strconv.FormatFloat(*s.MaxPnL, 'f', -1, 64))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Filter applies the spec to a TradeSet and returns a new filtered set.
// It is a pure function: insertion order of the source is preserved and
// the source set is never mutated. An end date before the start date
// yields an empty set, not an error.
func Filter(ts TradeSet, spec FilterSpec) TradeSet {
	symbol := strings.ToUpper(strings.TrimSpace(spec.Symbol))

	out := make([]Trade, 0, len(ts.trades))
	for _, t := range ts.trades {
		if !matches(t, spec, symbol) {
			continue
		}
		out = append(out, t)
	}

	return TradeSet{trades: out}
}

func matches(t Trade, spec FilterSpec, symbol string) bool {
	if spec.StartDate != nil && t.EntryTime.Before(*spec.StartDate) {
		return false
	}
	if spec.EndDate != nil && t.EntryTime.After(*spec.EndDate) {
		return false
	}
	if symbol != "" && t.Symbol != symbol {
		return false
	}
	if spec.Side != "" && t.Side != spec.Side {
		return false
	}

	switch spec.Status {
	case StatusOpen:
		if t.Closed() {
			return false
		}
	case StatusClosed:
		if !t.Closed() {
			return false
		}
	}

	// PnL bounds never inspect open trades: pnl is undefined for them,
	// so they are excluded whenever a bound is set.
	if spec.MinPnL != nil || spec.MaxPnL != nil {
		if !t.Closed() {
			return false
		}
		if spec.MinPnL != nil && t.PnL < *spec.MinPnL {
			return false
		}
		if spec.MaxPnL != nil && t.PnL > *spec.MaxPnL {
			return false
		}
	}

	return true
}
