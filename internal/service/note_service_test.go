package service

import (
	"colabnote-be/internal/dto"
	"colabnote-be/internal/entity"
	"colabnote-be/internal/pkg/serverutils"
	"colabnote-be/internal/repository"
	"colabnote-be/pkg/database"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNoteRepository struct {
	notes map[uuid.UUID]*entity.Note
}

func newFakeNoteRepository() *fakeNoteRepository {
	return &fakeNoteRepository{notes: make(map[uuid.UUID]*entity.Note)}
}

func (f *fakeNoteRepository) UsingTx(ctx context.Context, tx database.DatabaseQueryer) repository.INoteRepository {
	return f
}

func (f *fakeNoteRepository) Create(ctx context.Context, note *entity.Note) error {
	f.notes[note.Id] = note
	return nil
}

func (f *fakeNoteRepository) GetById(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	note, ok := f.notes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *note
	return &copied, nil
}

func (f *fakeNoteRepository) GetByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.Note, error) {
	res := make([]*entity.Note, 0)
	for _, id := range ids {
		if note, ok := f.notes[id]; ok {
			res = append(res, note)
		}
	}
	return res, nil
}

func (f *fakeNoteRepository) GetByOpenAccessCode(ctx context.Context, code string) (*entity.Note, error) {
	for _, note := range f.notes {
		if note.IsCollaborationOpen && note.AccessCode != nil && *note.AccessCode == code {
			return note, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeNoteRepository) Update(ctx context.Context, note *entity.Note) error {
	f.notes[note.Id] = note
	return nil
}

func (f *fakeNoteRepository) DeleteById(ctx context.Context, id uuid.UUID) error {
	delete(f.notes, id)
	return nil
}

func TestNoteServiceCreateDefaults(t *testing.T) {
	repo := newFakeNoteRepository()
	svc := NewNoteService(repo, nil)

	id := uuid.New()
	res, err := svc.Create(context.Background(), &dto.CreateNoteRequest{
		Id:    id,
		Users: []string{"Alice", "Alice", "Bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, id, res.Id)

	note := repo.notes[id]
	require.NotNil(t, note)
	assert.Equal(t, "default", note.Variant)
	assert.False(t, note.LastEdited.IsZero())
	assert.Equal(t, []string{"Alice", "Bob"}, note.Users, "duplicate participants are dropped")
	assert.NotNil(t, note.Items)
}

func TestNoteServiceShowNotFound(t *testing.T) {
	svc := NewNoteService(newFakeNoteRepository(), nil)

	_, err := svc.Show(context.Background(), uuid.New())
	require.ErrorIs(t, err, serverutils.ErrNotFound)
}

func TestNoteServiceShowManyOmitsUnknownIds(t *testing.T) {
	repo := newFakeNoteRepository()
	svc := NewNoteService(repo, nil)

	known := uuid.New()
	repo.notes[known] = &entity.Note{Id: known, Title: "known"}

	res, err := svc.ShowMany(context.Background(), []uuid.UUID{known, uuid.New()})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, known, res[0].Id)

	empty, err := svc.ShowMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNoteServiceLookup(t *testing.T) {
	repo := newFakeNoteRepository()
	svc := NewNoteService(repo, nil)

	code := "4821"
	open := uuid.New()
	repo.notes[open] = &entity.Note{
		Id:                  open,
		IsCollaborationOpen: true,
		AccessCode:          &code,
	}

	res, err := svc.Lookup(context.Background(), &dto.LookupNoteRequest{Code: "4821"})
	require.NoError(t, err)
	assert.Equal(t, open, res.Id)

	// A closed session's code never resolves.
	repo.notes[open].IsCollaborationOpen = false
	_, err = svc.Lookup(context.Background(), &dto.LookupNoteRequest{Code: "4821"})
	require.ErrorIs(t, err, serverutils.ErrNotFound)
}

func TestNoteServiceDeleteUnknownIdSucceeds(t *testing.T) {
	svc := NewNoteService(newFakeNoteRepository(), nil)
	require.NoError(t, svc.Delete(context.Background(), uuid.New()))
}

func TestMergeNoteUpdateOwnerFirstClaimWins(t *testing.T) {
	note := &entity.Note{Id: uuid.New()}

	alice := "Alice"
	mergeNoteUpdate(note, &dto.UpdateNoteRequest{Owner: &alice})
	require.NotNil(t, note.Owner)
	assert.Equal(t, "Alice", *note.Owner)

	bob := "Bob"
	mergeNoteUpdate(note, &dto.UpdateNoteRequest{Owner: &bob})
	assert.Equal(t, "Alice", *note.Owner, "a later claim never overwrites the owner")
}

func TestMergeNoteUpdateLeavesAbsentFieldsUntouched(t *testing.T) {
	code := "4821"
	note := &entity.Note{
		Id:                  uuid.New(),
		Title:               "original",
		Content:             "body",
		AccessCode:          &code,
		IsCollaborationOpen: true,
	}

	title := "renamed"
	mergeNoteUpdate(note, &dto.UpdateNoteRequest{Title: &title})

	assert.Equal(t, "renamed", note.Title)
	assert.Equal(t, "body", note.Content)
	assert.True(t, note.IsCollaborationOpen)
	require.NotNil(t, note.AccessCode)
	assert.Equal(t, "4821", *note.AccessCode)
}

func TestMergeNoteUpdateStampsLastEdited(t *testing.T) {
	note := &entity.Note{Id: uuid.New()}

	mergeNoteUpdate(note, &dto.UpdateNoteRequest{})
	assert.False(t, note.LastEdited.IsZero())

	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mergeNoteUpdate(note, &dto.UpdateNoteRequest{LastEdited: &stamp})
	assert.Equal(t, stamp, note.LastEdited)
}

func TestMergeNoteUpdateDedupesUsers(t *testing.T) {
	note := &entity.Note{Id: uuid.New(), Users: []string{"Alice"}}

	users := []string{"Alice", "Bob", "Alice"}
	mergeNoteUpdate(note, &dto.UpdateNoteRequest{Users: &users})
	assert.Equal(t, []string{"Alice", "Bob"}, note.Users)
}
