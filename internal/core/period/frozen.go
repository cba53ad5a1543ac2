package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Marker freezes one month, optionally for a single subdivision and/or material.
// Nil IDs match any value.
type Marker struct {
	Year          int
	Month         time.Month
	SubdivisionID *int64
	MaterialID    *int64
}

// Matches reports whether the marker covers the given key and month.
func (m Marker) Matches(subdivisionID, materialID int64, date time.Time) bool {
	if date.Year() != m.Year || date.Month() != m.Month {
		return false
	}
	if m.SubdivisionID != nil && *m.SubdivisionID != subdivisionID {
		return false
	}
	if m.MaterialID != nil && *m.MaterialID != materialID {
		return false
	}
	return true
}

func (m Marker) String() string {
	s := fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
	if m.SubdivisionID == nil && m.MaterialID == nil {
		return s
	}
	return s + "@" + idOrWildcard(m.SubdivisionID) + ":" + idOrWildcard(m.MaterialID)
}

func idOrWildcard(id *int64) string {
	if id == nil {
		return "*"
	}
	return strconv.FormatInt(*id, 10)
}

// ParseMarker parses YYYY-MM[@sub:mat] where sub and mat are ids or "*".
func ParseMarker(s string) (Marker, error) {
	s = strings.TrimSpace(s)
	monthPart, scope, scoped := strings.Cut(s, "@")

	t, err := time.Parse("2006-01", monthPart)
	if err != nil {
		return Marker{}, fmt.Errorf("frozen period %q: month must be YYYY-MM", s)
	}
	m := Marker{Year: t.Year(), Month: t.Month()}
	if !scoped {
		return m, nil
	}

	subPart, matPart, ok := strings.Cut(scope, ":")
	if !ok {
		return Marker{}, fmt.Errorf("frozen period %q: scope must be sub:mat", s)
	}
	if m.SubdivisionID, err = parseScopeID(subPart); err != nil {
		return Marker{}, fmt.Errorf("frozen period %q: %w", s, err)
	}
	if m.MaterialID, err = parseScopeID(matPart); err != nil {
		return Marker{}, fmt.Errorf("frozen period %q: %w", s, err)
	}
	return m, nil
}

func parseScopeID(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "*" || s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid id %q", s)
	}
	return &id, nil
}

// FrozenSet is the configured list of immutable months.
// It implements envconfig.Decoder so it can be read from FROZEN_PERIODS.
type FrozenSet []Marker

// Decode parses a comma separated marker list.
func (f *FrozenSet) Decode(value string) error {
	var out FrozenSet
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		m, err := ParseMarker(part)
		if err != nil {
			return err
		}
		out = append(out, m)
	}
	*f = out
	return nil
}

// MustFrozenSet parses markers and panics on error. Use for defaults and tests.
func MustFrozenSet(markers ...string) FrozenSet {
	var f FrozenSet
	if err := f.Decode(strings.Join(markers, ",")); err != nil {
		panic(err)
	}
	return f
}

// IsFrozen reports whether the month of date is frozen for the key.
func (f FrozenSet) IsFrozen(subdivisionID, materialID int64, date time.Time) bool {
	date = MonthStart(date)
	for _, m := range f {
		if m.Matches(subdivisionID, materialID, date) {
			return true
		}
	}
	return false
}

func (f FrozenSet) String() string {
	parts := make([]string, len(f))
	for i, m := range f {
		parts[i] = m.String()
	}
	return strings.Join(parts, ",")
}
