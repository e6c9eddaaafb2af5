package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ExtraKind tags which representation an ExtraDuration holds.
type ExtraKind uint8

const (
	ExtraNone ExtraKind = iota
	ExtraDecimal
	ExtraClock
	ExtraMalformed
)

// ExtraDuration is the extra time worked beyond a standard shift, either as
// decimal hours or as an "HH:MM" clock value. Malformed input is kept in Raw
// so it can be shown back to the user.
type ExtraDuration struct {
	Kind    ExtraKind
	Decimal float64
	Hours   int
	Minutes int
	Raw     string
}

func DecimalExtra(hours float64) ExtraDuration {
	return ExtraDuration{Kind: ExtraDecimal, Decimal: hours}
}

func ClockExtra(hours, minutes int) ExtraDuration {
	return ExtraDuration{Kind: ExtraClock, Hours: hours, Minutes: minutes}
}

// ParseExtraDuration reads "HH:MM" or a decimal number ("1.5" or "1,5").
// It never fails: unusable input yields an ExtraMalformed value.
func ParseExtraDuration(s string) ExtraDuration {
	s = strings.TrimSpace(s)
	if s == "" {
		return ExtraDuration{}
	}
	if hh, mm, ok := strings.Cut(s, ":"); ok {
		h, errH := strconv.Atoi(hh)
		m, errM := strconv.Atoi(mm)
		if errH != nil || errM != nil || h < 0 || m < 0 || m > 59 {
			return ExtraDuration{Kind: ExtraMalformed, Raw: s}
		}
		return ClockExtra(h, m)
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return ExtraDuration{Kind: ExtraMalformed, Raw: s}
	}
	return DecimalExtra(v)
}

func (e ExtraDuration) IsZero() bool { return e == ExtraDuration{} }

func (e ExtraDuration) String() string {
	switch e.Kind {
	case ExtraDecimal:
		return strconv.FormatFloat(e.Decimal, 'f', -1, 64)
	case ExtraClock:
		return fmt.Sprintf("%02d:%02d", e.Hours, e.Minutes)
	case ExtraMalformed:
		return e.Raw
	}
	return ""
}

// MarshalJSON writes decimals as numbers, clock values and malformed input
// as strings and an absent value as null.
func (e ExtraDuration) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case ExtraDecimal:
		if math.IsNaN(e.Decimal) || math.IsInf(e.Decimal, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(e.Decimal)
	case ExtraClock, ExtraMalformed:
		return json.Marshal(e.String())
	}
	return []byte("null"), nil
}

func (e *ExtraDuration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*e = ExtraDuration{}
	case float64:
		*e = DecimalExtra(x)
	case string:
		*e = ParseExtraDuration(x)
	default:
		*e = ExtraDuration{Kind: ExtraMalformed, Raw: string(data)}
	}
	return nil
}
