package plans

import (
	"encoding/json"
	"strconv"
)

// Limit is either a finite bound or unlimited. The zero value is Finite(0).
type Limit struct {
	n         uint64
	unlimited bool
}

// Finite returns a limit allowing n units.
func Finite(n uint64) Limit { return Limit{n: n} }

// Unlimited returns a limit with no bound.
func Unlimited() Limit { return Limit{unlimited: true} }

func (l Limit) IsUnlimited() bool { return l.unlimited }

// Value returns the finite bound. ok is false for unlimited limits.
func (l Limit) Value() (n uint64, ok bool) {
	if l.unlimited {
		return 0, false
	}
	return l.n, true
}

// Allows reports whether one more unit may be consumed at the given usage.
// N units are allowed, the N+1th is blocked.
func (l Limit) Allows(usage int64) bool {
	if l.unlimited {
		return true
	}
	if usage < 0 {
		return true
	}
	return uint64(usage) < l.n
}

// Reached reports whether usage is at or above a finite bound.
func (l Limit) Reached(usage int64) bool {
	return !l.Allows(usage)
}

// Percentage returns 100*usage/limit. It is 0 for unlimited limits and is clamped
// only at the lower bound, so overage yields values above 100.
// A finite zero limit reports 100.
func (l Limit) Percentage(usage int64) float64 {
	if l.unlimited {
		return 0
	}
	if usage < 0 {
		return 0
	}
	if l.n == 0 {
		return 100
	}
	return 100 * float64(usage) / float64(l.n)
}

func (l Limit) String() string {
	if l.unlimited {
		return "unlimited"
	}
	return strconv.FormatUint(l.n, 10)
}

// MarshalJSON encodes unlimited as the string "unlimited" and finite limits as numbers.
func (l Limit) MarshalJSON() ([]byte, error) {
	if l.unlimited {
		return []byte(`"unlimited"`), nil
	}
	return []byte(strconv.FormatUint(l.n, 10)), nil
}

func (l *Limit) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s == "unlimited" {
			*l = Unlimited()
			return nil
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		*l = Finite(n)
		return nil
	}
	var n uint64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*l = Finite(n)
	return nil
}
