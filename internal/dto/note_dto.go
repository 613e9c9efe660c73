package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateNoteRequest struct {
	Id                  uuid.UUID `json:"id" validate:"required"`
	Title               string    `json:"title"`
	Content             string    `json:"content"`
	Items               []string  `json:"items"`
	Users               []string  `json:"users"`
	Owner               *string   `json:"owner"`
	IsCollaborationOpen bool      `json:"is_collaboration_open"`
	AccessCode          *string   `json:"access_code"`
	Variant             string    `json:"variant"`
	LastEdited          time.Time `json:"last_edited"`
}

type CreateNoteResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShowNoteResponse struct {
	Id                  uuid.UUID `json:"id"`
	Title               string    `json:"title"`
	Content             string    `json:"content"`
	Items               []string  `json:"items"`
	Users               []string  `json:"users"`
	Owner               *string   `json:"owner"`
	IsCollaborationOpen bool      `json:"is_collaboration_open"`
	AccessCode          *string   `json:"access_code"`
	Variant             string    `json:"variant"`
	LastEdited          time.Time `json:"last_edited"`
}

// UpdateNoteRequest is a merge-style patch: nil fields are left untouched
// server-side.
type UpdateNoteRequest struct {
	Id                  uuid.UUID  `json:"-"`
	Title               *string    `json:"title"`
	Content             *string    `json:"content"`
	Items               *[]string  `json:"items"`
	Users               *[]string  `json:"users"`
	Owner               *string    `json:"owner"`
	IsCollaborationOpen *bool      `json:"is_collaboration_open"`
	AccessCode          *string    `json:"access_code"`
	Variant             *string    `json:"variant"`
	LastEdited          *time.Time `json:"last_edited"`
}

type UpdateNoteResponse struct {
	Id uuid.UUID `json:"id"`
}

type LookupNoteRequest struct {
	Code string `json:"code" validate:"required,len=4,numeric"`
}

type LookupNoteResponse struct {
	Id uuid.UUID `json:"id"`
}

type PublishNoteMutationMessage struct {
	Op     string             `json:"op"`
	NoteId uuid.UUID          `json:"note_id"`
	Note   *CreateNoteRequest `json:"note,omitempty"`
	Patch  *UpdateNoteRequest `json:"patch,omitempty"`
}
