// Package retention enforces how long captures live: it sweeps expired
// temp frames and recordings, reconciles catalog rows whose files have
// gone missing, and reclaims store space.
package retention

import (
	"fmt"
	"math"
	"time"
)

// Policy names a retention window.
type Policy string

const (
	PolicyNever    Policy = "never"
	PolicyOneDay   Policy = "1_day"
	PolicyOneWeek  Policy = "1_week"
	PolicyOneMonth Policy = "1_month"
)

var policyDays = map[Policy]int{
	PolicyOneDay:   1,
	PolicyOneWeek:  7,
	PolicyOneMonth: 30,
}

// ParsePolicy validates a policy string.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(s)
	if p == PolicyNever {
		return p, nil
	}
	if _, ok := policyDays[p]; !ok {
		return "", fmt.Errorf("invalid retention policy %q", s)
	}
	return p, nil
}

// Cutoff returns the epoch timestamp below which items expire. Policy
// never yields +Inf so nothing ever qualifies.
func (p Policy) Cutoff(now time.Time) float64 {
	if p == PolicyNever {
		return math.Inf(1)
	}
	days := policyDays[p]
	return float64(now.AddDate(0, 0, -days).UnixNano()) / 1e9
}
