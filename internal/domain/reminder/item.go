package reminder

import "time"

// AssignmentItem is one (slot, person) pairing needing a reminder.
// Items are derived on every run and never persisted.
type AssignmentItem struct {
	SlotID        string
	LinkID        string
	SlotTitle     string
	SlotDate      time.Time
	SlotTime      string
	Location      string
	PersonID      string
	PersonName    string
	Phone         string
	Roles         []string // "funcoes", first-seen order, no duplicates
	ChurchName    string
	LeaderContact string
}

// Key is the idempotency key used by the gate: (slot, person, kind).
type Key struct {
	SlotID   string
	PersonID string
	Kind     Kind
}

func (i *AssignmentItem) Key(kind Kind) Key {
	return Key{SlotID: i.SlotID, PersonID: i.PersonID, Kind: kind}
}
