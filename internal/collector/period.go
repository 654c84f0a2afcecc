package collector

import (
	"fmt"
	"strings"

	"StockPulse/internal/model"
)

// Period is a lookback window offered to users.
type Period int

const (
	Period1W Period = iota
	Period1M
	Period3M
	Period6M
	Period1Y
	Period2Y
	Period5Y
)

var periods = []struct {
	code string
	days int
}{
	Period1W: {"1wk", 5},
	Period1M: {"1mo", 21},
	Period3M: {"3mo", 63},
	Period6M: {"6mo", 126},
	Period1Y: {"1y", 252},
	Period2Y: {"2y", 504},
	Period5Y: {"5y", 1260},
}

// DefaultPeriod is used when a request does not name one.
const DefaultPeriod = Period1Y

// ParsePeriod resolves codes such as "6mo" or "1y". Empty means DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultPeriod, nil
	}
	for p, def := range periods {
		if def.code == s {
			return Period(p), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown period %q", model.ErrInvalidInput, s)
}

func (p Period) String() string {
	if p < 0 || int(p) >= len(periods) {
		return fmt.Sprintf("Period(%d)", int(p))
	}
	return periods[p].code
}

// TradingDays approximates the number of daily bars the period spans.
func (p Period) TradingDays() int {
	if p < 0 || int(p) >= len(periods) {
		return 0
	}
	return periods[p].days
}

// MarshalText lets periods appear as codes in JSON and YAML.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(b []byte) error {
	v, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
