package service

import (
	"colabnote-be/internal/client"
	"colabnote-be/internal/constant"
	"colabnote-be/internal/dto"
	"colabnote-be/internal/entity"
	"colabnote-be/internal/pkg/serverutils"
	"colabnote-be/internal/repository"
	"context"
	"math"
	"math/rand"
	"strconv"

	"github.com/google/uuid"
)

// AccessState gates what the local user may do with an open note.
type AccessState string

const (
	// AccessStateAwaitingName blocks everything until the user picks a name.
	AccessStateAwaitingName AccessState = "awaiting_name"
	// AccessStateLocked means the owner has not opened collaboration.
	AccessStateLocked AccessState = "locked"
	// AccessStateCodePrompt asks a guest for the 4-digit access code.
	AccessStateCodePrompt AccessState = "code_prompt"
	// AccessStateGranted allows viewing and editing.
	AccessStateGranted AccessState = "granted"
)

// NoteSession is the per-note, per-device access state. Grants are session
// local: they are never persisted and never shared between clients.
type NoteSession struct {
	NoteId    uuid.UUID
	UserName  string
	State     AccessState
	CodeError bool

	granted bool
}

// DeriveAccessState computes the access state from the cached note and the
// local identity alone. priorGranted keeps a guest's grant sticky within the
// session while collaboration stays open; it never survives a close.
func DeriveAccessState(note *entity.Note, userName string, priorGranted bool) AccessState {
	if userName == "" {
		return AccessStateAwaitingName
	}
	if note.Owner == nil || *note.Owner == userName {
		return AccessStateGranted
	}
	if !note.IsCollaborationOpen {
		return AccessStateLocked
	}
	if priorGranted {
		return AccessStateGranted
	}
	return AccessStateCodePrompt
}

type ISessionService interface {
	Open(ctx context.Context, noteId uuid.UUID) (*NoteSession, error)
	SubmitName(ctx context.Context, session *NoteSession, name string) error
	SubmitCode(ctx context.Context, session *NoteSession, code string) error
	Refresh(ctx context.Context, session *NoteSession) error
	ToggleCollaboration(ctx context.Context, session *NoteSession) error
	JoinByCode(ctx context.Context, code string) (uuid.UUID, error)
}

type sessionService struct {
	cacheRepository      repository.ICacheRepository
	localStateRepository repository.ILocalStateRepository
	syncService          ISyncService
	storeClient          client.INoteStoreClient
}

func NewSessionService(
	cacheRepository repository.ICacheRepository,
	localStateRepository repository.ILocalStateRepository,
	syncService ISyncService,
	storeClient client.INoteStoreClient,
) ISessionService {
	return &sessionService{
		cacheRepository:      cacheRepository,
		localStateRepository: localStateRepository,
		syncService:          syncService,
		storeClient:          storeClient,
	}
}

func (s *sessionService) Open(ctx context.Context, noteId uuid.UUID) (*NoteSession, error) {

	note, ok := s.cacheRepository.Get(noteId)
	if !ok {
		return nil, serverutils.ErrNotFound
	}

	session := &NoteSession{
		NoteId: noteId,
		State:  AccessStateAwaitingName,
	}

	userName, ok := s.localStateRepository.UserName()
	if !ok {
		return session, nil
	}

	session.UserName = userName
	s.enter(ctx, session, note)

	return session, nil
}

func (s *sessionService) SubmitName(ctx context.Context, session *NoteSession, name string) error {

	if name == "" {
		return serverutils.ErrBadRequest
	}

	note, ok := s.cacheRepository.Get(session.NoteId)
	if !ok {
		return serverutils.ErrNotFound
	}

	s.localStateRepository.SetUserName(name)
	session.UserName = name
	s.enter(ctx, session, note)

	return nil
}

// enter claims ownership of an ownerless note, records the participant, and
// derives the resulting access state. Shared by Open and SubmitName.
func (s *sessionService) enter(ctx context.Context, session *NoteSession, note *entity.Note) {

	if note.Owner == nil {
		// First-claim-wins. Two clients racing here resolve to whichever
		// update lands last in storage; there is no conflict detection.
		s.syncService.UpdateNote(ctx, note.Id, &dto.UpdateNoteRequest{
			Owner: &session.UserName,
		})
	}

	if !note.HasUser(session.UserName) {
		users := append(append([]string{}, note.Users...), session.UserName)
		s.syncService.UpdateNote(ctx, note.Id, &dto.UpdateNoteRequest{
			Users: &users,
		})
	}

	session.State = DeriveAccessState(note, session.UserName, session.granted)
	if session.State == AccessStateGranted {
		session.granted = true
	}
}

// SubmitCode verifies a guest's access code. A mismatch is a persistent UI
// error flag, not an error return; it clears only on a correct attempt.
func (s *sessionService) SubmitCode(ctx context.Context, session *NoteSession, code string) error {

	if err := serverutils.ValidateRequest(dto.LookupNoteRequest{Code: code}); err != nil {
		return err
	}

	note, ok := s.cacheRepository.Get(session.NoteId)
	if !ok {
		return serverutils.ErrNotFound
	}

	if session.State != AccessStateCodePrompt {
		return serverutils.ErrBadRequest
	}

	if note.AccessCode != nil && *note.AccessCode == code {
		session.granted = true
		session.State = AccessStateGranted
		session.CodeError = false
	} else {
		session.CodeError = true
	}

	return nil
}

// Refresh re-derives the access state after the cached note changed, e.g.
// after a sync pulled a collaboration close. A guest's grant is revoked the
// moment collaboration closes.
func (s *sessionService) Refresh(ctx context.Context, session *NoteSession) error {

	note, ok := s.cacheRepository.Get(session.NoteId)
	if !ok {
		return serverutils.ErrNotFound
	}

	isGuest := note.Owner != nil && *note.Owner != session.UserName
	if isGuest && !note.IsCollaborationOpen {
		session.granted = false
		session.CodeError = false
	}

	session.State = DeriveAccessState(note, session.UserName, session.granted)
	if session.State == AccessStateGranted {
		session.granted = true
	}

	return nil
}

// ToggleCollaboration flips the collaboration switch. Owner only. Opening
// mints the 4-digit access code once; closing retains it so reopening reuses
// the same code.
func (s *sessionService) ToggleCollaboration(ctx context.Context, session *NoteSession) error {

	note, ok := s.cacheRepository.Get(session.NoteId)
	if !ok {
		return serverutils.ErrNotFound
	}

	if note.Owner == nil || *note.Owner != session.UserName {
		return serverutils.ErrUnauthorized
	}

	willBeOpen := !note.IsCollaborationOpen
	code := note.AccessCode
	if willBeOpen && code == nil {
		minted := generateAccessCode()
		code = &minted
	}

	s.syncService.UpdateNote(ctx, note.Id, &dto.UpdateNoteRequest{
		IsCollaborationOpen: &willBeOpen,
		AccessCode:          code,
	})

	return nil
}

// JoinByCode resolves an access code to a note id and pulls the note into
// the local cache. Only open sessions resolve; a closed session's code is
// treated as not found.
func (s *sessionService) JoinByCode(ctx context.Context, code string) (uuid.UUID, error) {

	if err := serverutils.ValidateRequest(dto.LookupNoteRequest{Code: code}); err != nil {
		return uuid.Nil, err
	}

	id, err := s.storeClient.LookupByCode(ctx, code)
	if err != nil {
		return uuid.Nil, err
	}

	if _, err := s.syncService.FetchNote(ctx, id); err != nil {
		return uuid.Nil, err
	}

	return id, nil
}

// generateAccessCode mints a uniform code with no leading zero, so it always
// prints at the full length.
func generateAccessCode() string {
	low := int(math.Pow10(constant.AccessCodeLength - 1))
	return strconv.Itoa(low + rand.Intn(9*low))
}
