package service

import (
	"colabnote-be/internal/constant"
	"colabnote-be/internal/dto"
	"colabnote-be/internal/entity"
	"colabnote-be/internal/pkg/serverutils"
	"colabnote-be/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type INoteService interface {
	Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowNoteResponse, error)
	ShowMany(ctx context.Context, ids []uuid.UUID) ([]*dto.ShowNoteResponse, error)
	Update(ctx context.Context, req *dto.UpdateNoteRequest) (*dto.UpdateNoteResponse, error)
	Delete(ctx context.Context, idParam uuid.UUID) error
	Lookup(ctx context.Context, req *dto.LookupNoteRequest) (*dto.LookupNoteResponse, error)
}

type noteService struct {
	noteRepository repository.INoteRepository
	db             *pgxpool.Pool
}

func NewNoteService(
	noteRepository repository.INoteRepository,
	db *pgxpool.Pool,
) INoteService {
	return &noteService{
		noteRepository: noteRepository,
		db:             db,
	}
}

func toShowNoteResponse(note *entity.Note) *dto.ShowNoteResponse {
	return &dto.ShowNoteResponse{
		Id:                  note.Id,
		Title:               note.Title,
		Content:             note.Content,
		Items:               note.Items,
		Users:               note.Users,
		Owner:               note.Owner,
		IsCollaborationOpen: note.IsCollaborationOpen,
		AccessCode:          note.AccessCode,
		Variant:             note.Variant,
		LastEdited:          note.LastEdited,
	}
}

func dedupeUsers(users []string) []string {
	seen := make(map[string]bool, len(users))
	res := make([]string, 0, len(users))
	for _, u := range users {
		if seen[u] {
			continue
		}
		seen[u] = true
		res = append(res, u)
	}
	return res
}

func (c *noteService) Create(ctx context.Context, req *dto.CreateNoteRequest) (*dto.CreateNoteResponse, error) {

	variant := req.Variant
	if variant == "" {
		variant = constant.NoteVariantDefault
	}

	lastEdited := req.LastEdited
	if lastEdited.IsZero() {
		lastEdited = time.Now()
	}

	note := entity.Note{
		Id:                  req.Id,
		Title:               req.Title,
		Content:             req.Content,
		Items:               req.Items,
		Users:               dedupeUsers(req.Users),
		Owner:               req.Owner,
		IsCollaborationOpen: req.IsCollaborationOpen,
		AccessCode:          req.AccessCode,
		Variant:             variant,
		LastEdited:          lastEdited,
	}

	if note.Items == nil {
		note.Items = make([]string, 0)
	}
	if note.Users == nil {
		note.Users = make([]string, 0)
	}

	err := c.noteRepository.Create(ctx, &note)
	if err != nil {
		return nil, err
	}

	return &dto.CreateNoteResponse{
		Id: note.Id,
	}, nil
}

func (c *noteService) Show(ctx context.Context, idParam uuid.UUID) (*dto.ShowNoteResponse, error) {

	note, err := c.noteRepository.GetById(ctx, idParam)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serverutils.ErrNotFound
		}
		return nil, err
	}

	return toShowNoteResponse(note), nil
}

func (c *noteService) ShowMany(ctx context.Context, ids []uuid.UUID) ([]*dto.ShowNoteResponse, error) {

	res := make([]*dto.ShowNoteResponse, 0)
	if len(ids) == 0 {
		return res, nil
	}

	notes, err := c.noteRepository.GetByIds(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Unknown ids are silently omitted from the response.
	for _, note := range notes {
		res = append(res, toShowNoteResponse(note))
	}

	return res, nil
}

func (c *noteService) Update(ctx context.Context, req *dto.UpdateNoteRequest) (*dto.UpdateNoteResponse, error) {

	tx, err := c.db.Begin(ctx)
	if err != nil {
		return nil, err
	}

	defer tx.Rollback(ctx)

	noteRepository := c.noteRepository.UsingTx(ctx, tx)

	note, err := noteRepository.GetById(ctx, req.Id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serverutils.ErrNotFound
		}
		return nil, err
	}

	mergeNoteUpdate(note, req)

	err = noteRepository.Update(ctx, note)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.UpdateNoteResponse{
		Id: note.Id,
	}, nil
}

// mergeNoteUpdate applies the non-nil patch fields. Absent fields are left
// untouched; ownership is first-claim-wins, a later claim never overwrites
// it.
func mergeNoteUpdate(note *entity.Note, req *dto.UpdateNoteRequest) {
	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Items != nil {
		note.Items = *req.Items
	}
	if req.Users != nil {
		note.Users = dedupeUsers(*req.Users)
	}
	if req.Owner != nil && note.Owner == nil {
		note.Owner = req.Owner
	}
	if req.IsCollaborationOpen != nil {
		note.IsCollaborationOpen = *req.IsCollaborationOpen
	}
	if req.AccessCode != nil {
		note.AccessCode = req.AccessCode
	}
	if req.Variant != nil {
		note.Variant = *req.Variant
	}

	if req.LastEdited != nil {
		note.LastEdited = *req.LastEdited
	} else {
		note.LastEdited = time.Now()
	}
}

func (c *noteService) Delete(ctx context.Context, idParam uuid.UUID) error {

	// Deletion succeeds regardless of prior existence.
	err := c.noteRepository.DeleteById(ctx, idParam)
	if err != nil {
		return err
	}

	return nil
}

func (c *noteService) Lookup(ctx context.Context, req *dto.LookupNoteRequest) (*dto.LookupNoteResponse, error) {

	// A closed session's code never resolves, even when correct.
	note, err := c.noteRepository.GetByOpenAccessCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serverutils.ErrNotFound
		}
		return nil, err
	}

	return &dto.LookupNoteResponse{
		Id: note.Id,
	}, nil
}
