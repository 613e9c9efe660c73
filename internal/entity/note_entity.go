package entity

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	Id                  uuid.UUID
	Title               string
	Content             string
	Items               []string
	Users               []string
	Owner               *string
	IsCollaborationOpen bool
	AccessCode          *string
	Variant             string
	LastEdited          time.Time
}

// HasUser reports whether name already appears in the participant list.
func (n *Note) HasUser(name string) bool {
	for _, u := range n.Users {
		if u == name {
			return true
		}
	}
	return false
}
