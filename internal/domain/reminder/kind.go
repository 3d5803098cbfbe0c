// internal/domain/reminder/kind.go
package reminder

import (
	"fmt"
	"strings"
)

// Kind identifies the reminder timing variant.
type Kind string

const (
	KindD3 Kind = "D3" // three days before the event
	KindD1 Kind = "D1" // the day before
	KindD0 Kind = "D0" // the day of the event
)

// AllKinds is the default set processed by a run, in dispatch order.
var AllKinds = []Kind{KindD3, KindD1, KindD0}

// ErrInvalidKind is returned by ParseKind for anything outside D3/D1/D0.
var ErrInvalidKind = fmt.Errorf("invalid reminder kind")

// OffsetDays is the number of days between "today" and the event date targeted by the kind.
func (k Kind) OffsetDays() int {
	switch k {
	case KindD3:
		return 3
	case KindD1:
		return 1
	default:
		return 0
	}
}

func (k Kind) Valid() bool {
	return k == KindD3 || k == KindD1 || k == KindD0
}

// ParseKind accepts "D3", "d1", " D0 " and friends.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// ParseKinds maps the manual trigger's "tipo" field to a kind list.
// Empty, "todos" and "all" select every kind.
func ParseKinds(s string) ([]Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "todos", "all":
		return append([]Kind(nil), AllKinds...), nil
	}
	k, err := ParseKind(s)
	if err != nil {
		return nil, err
	}
	return []Kind{k}, nil
}
