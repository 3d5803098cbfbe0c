package escala

import (
	"database/sql"
	"time"
)

// LinkStatusPublished is the only link status whose slots receive reminders.
const LinkStatusPublished = "publicado"

// Link is a monthly scheduling link ("escala") published by a church.
// Corresponds to the 'escalas_links' table.
type Link struct {
	ID          string
	ChurchID    string
	ChurchName  string // joined from churches.nome
	Month       int
	Year        int
	Status      string
	LeaderName  sql.NullString
	LeaderPhone sql.NullString
}

// Slot is a single dated, timed event inside a link (service, arena, ...).
// Corresponds to the 'escalas_slots' table.
type Slot struct {
	ID       string
	LinkID   string
	Date     time.Time // date only, midnight in the configured timezone
	Time     string    // "HH:MM" or "HH:MM:SS" as stored
	Title    string
	Location sql.NullString
}

// RoleAssignment binds a person to a role ("funcao") in a slot.
// Corresponds to the 'escalas_atribuicoes' table. One person may hold several rows per slot.
type RoleAssignment struct {
	SlotID   string
	PersonID string
	Role     string
}
