package service

import (
	"colabnote-be/internal/client"
	"colabnote-be/internal/constant"
	"colabnote-be/internal/dto"
	"colabnote-be/internal/entity"
	"colabnote-be/internal/repository"
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// ISyncService reconciles the optimistic local cache with the remote note
// store. Local mutations are applied synchronously; remote propagation is
// fire-and-forget through the mutation topic. Remote state wins only on
// explicit FetchNote/SyncAll, local state wins in between.
type ISyncService interface {
	ListNotes() []*entity.Note
	CreateNote(ctx context.Context, owner string) uuid.UUID
	UpdateNote(ctx context.Context, id uuid.UUID, patch *dto.UpdateNoteRequest)
	DeleteNote(ctx context.Context, id uuid.UUID)
	FetchNote(ctx context.Context, id uuid.UUID) (*entity.Note, error)
	SyncAll(ctx context.Context) error
}

type syncService struct {
	cacheRepository  repository.ICacheRepository
	storeClient      client.INoteStoreClient
	publisherService IPublisherService
}

func NewSyncService(
	cacheRepository repository.ICacheRepository,
	storeClient client.INoteStoreClient,
	publisherService IPublisherService,
) ISyncService {
	return &syncService{
		cacheRepository:  cacheRepository,
		storeClient:      storeClient,
		publisherService: publisherService,
	}
}

func (s *syncService) ListNotes() []*entity.Note {
	return s.cacheRepository.List()
}

func (s *syncService) CreateNote(ctx context.Context, owner string) uuid.UUID {

	note := &entity.Note{
		Id:         uuid.New(),
		Items:      make([]string, 0),
		Users:      make([]string, 0),
		Variant:    constant.NoteVariantDefault,
		LastEdited: time.Now(),
	}
	if owner != "" {
		note.Owner = &owner
		note.Users = []string{owner}
	}

	// Local first, so the caller can open the note before any round-trip.
	s.cacheRepository.Upsert(note)

	s.publish(ctx, &dto.PublishNoteMutationMessage{
		Op:     constant.NoteMutationOpCreate,
		NoteId: note.Id,
		Note: &dto.CreateNoteRequest{
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
		},
	})

	return note.Id
}

func (s *syncService) UpdateNote(ctx context.Context, id uuid.UUID, patch *dto.UpdateNoteRequest) {

	patch.Id = id
	if patch.LastEdited == nil {
		now := time.Now()
		patch.LastEdited = &now
	}

	if existing, ok := s.cacheRepository.Get(id); ok {
		s.cacheRepository.Upsert(applyPatch(existing, patch))
	}

	s.publish(ctx, &dto.PublishNoteMutationMessage{
		Op:     constant.NoteMutationOpUpdate,
		NoteId: id,
		Patch:  patch,
	})
}

func (s *syncService) DeleteNote(ctx context.Context, id uuid.UUID) {

	s.cacheRepository.Remove(id)

	s.publish(ctx, &dto.PublishNoteMutationMessage{
		Op:     constant.NoteMutationOpDelete,
		NoteId: id,
	})
}

// FetchNote is remote-wins: a successful fetch replaces the local copy. On
// not-found or network failure the cache is left untouched and the caller
// decides the UI treatment.
func (s *syncService) FetchNote(ctx context.Context, id uuid.UUID) (*entity.Note, error) {

	res, err := s.storeClient.FetchNote(ctx, id)
	if err != nil {
		return nil, err
	}

	note := noteFromResponse(res)
	s.cacheRepository.Upsert(note)

	return note, nil
}

// SyncAll batch-fetches exactly the cached ids. Returned records replace
// local entries; ids absent from the response are left untouched, so a
// partial response never looks like a deletion.
func (s *syncService) SyncAll(ctx context.Context) error {

	ids := s.cacheRepository.Ids()
	if len(ids) == 0 {
		return nil
	}

	res, err := s.storeClient.FetchNotes(ctx, ids)
	if err != nil {
		return err
	}

	for _, remote := range res {
		s.cacheRepository.Upsert(noteFromResponse(remote))
	}

	return nil
}

func (s *syncService) publish(ctx context.Context, payload *dto.PublishNoteMutationMessage) {
	msgJson, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("[Sync] failed to marshal mutation for note %s: %v", payload.NoteId, err)
		return
	}

	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		log.Errorf("[Sync] failed to publish mutation for note %s: %v", payload.NoteId, err)
	}
}

// applyPatch merges non-nil patch fields over a copy of the cached note,
// last-applied-locally-wins for the fields it touches.
func applyPatch(existing *entity.Note, patch *dto.UpdateNoteRequest) *entity.Note {
	note := *existing

	if patch.Title != nil {
		note.Title = *patch.Title
	}
	if patch.Content != nil {
		note.Content = *patch.Content
	}
	if patch.Items != nil {
		note.Items = *patch.Items
	}
	if patch.Users != nil {
		note.Users = dedupeUsers(*patch.Users)
	}
	if patch.Owner != nil {
		note.Owner = patch.Owner
	}
	if patch.IsCollaborationOpen != nil {
		note.IsCollaborationOpen = *patch.IsCollaborationOpen
	}
	if patch.AccessCode != nil {
		note.AccessCode = patch.AccessCode
	}
	if patch.Variant != nil {
		note.Variant = *patch.Variant
	}
	if patch.LastEdited != nil {
		note.LastEdited = *patch.LastEdited
	}

	return &note
}

func noteFromResponse(res *dto.ShowNoteResponse) *entity.Note {
	note := &entity.Note{
		Id:                  res.Id,
		Title:               res.Title,
		Content:             res.Content,
		Items:               res.Items,
		Users:               res.Users,
		Owner:               res.Owner,
		IsCollaborationOpen: res.IsCollaborationOpen,
		AccessCode:          res.AccessCode,
		Variant:             res.Variant,
		LastEdited:          res.LastEdited,
	}

	if note.Items == nil {
		note.Items = make([]string, 0)
	}
	if note.Users == nil {
		note.Users = make([]string, 0)
	}

	return note
}
