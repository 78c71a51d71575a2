package models

import "github.com/google/uuid"

// ensureID assigns a random primary key when the caller left it empty. IDs are
// generated client side so inserts behave the same on postgres and sqlite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
