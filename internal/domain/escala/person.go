package escala

import "database/sql"

// Person is the subset of the 'people' table needed to reach a volunteer.
type Person struct {
	ID    string
	Name  string
	Phone sql.NullString
}
