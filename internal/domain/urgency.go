package domain

import (
	"fmt"
	"strings"
)

// Urgency classifies how soon a product needs restocking.
type Urgency int

const (
	UrgencyCritical Urgency = iota
	UrgencyWarning
	UrgencyOK
)

var urgencyLabels = map[Urgency]string{
	UrgencyCritical: "critical",
	UrgencyWarning:  "warning",
	UrgencyOK:       "ok",
}

var urgencyCodes = map[string]Urgency{
	"critical": UrgencyCritical,
	"warning":  UrgencyWarning,
	"ok":       UrgencyOK,
}

// Rank orders urgencies for sorting; lower ranks come first.
func (u Urgency) Rank() int {
	return int(u)
}

func (u Urgency) String() string {
	if label, ok := urgencyLabels[u]; ok {
		return label
	}
	return "unknown"
}

// ParseUrgency returns the urgency for a given label (case-insensitive).
func ParseUrgency(label string) (Urgency, bool) {
	u, ok := urgencyCodes[strings.ToLower(strings.TrimSpace(label))]
	return u, ok
}

func (u Urgency) MarshalText() ([]byte, error) {
	if _, ok := urgencyLabels[u]; !ok {
		return nil, fmt.Errorf("invalid urgency %d", int(u))
	}
	return []byte(u.String()), nil
}

func (u *Urgency) UnmarshalText(text []byte) error {
	parsed, ok := ParseUrgency(string(text))
	if !ok {
		return fmt.Errorf("invalid urgency %q", string(text))
	}
	*u = parsed
	return nil
}
