package escala

import (
	"context"
	"time"
)

// SlotRepository reads the published roster.
type SlotRepository interface {
	ListPublishedLinks(ctx context.Context, month, year int) ([]*Link, error)
	ListSlotsOnDate(ctx context.Context, linkIDs []string, date time.Time) ([]*Slot, error)
	ListAssignments(ctx context.Context, slotIDs []string) ([]*RoleAssignment, error)
}

// PeopleRepository resolves contact data for assigned volunteers.
type PeopleRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]*Person, error)
}
