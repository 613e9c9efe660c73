package service

import (
	"colabnote-be/internal/dto"
	"colabnote-be/internal/pkg/serverutils"
	"colabnote-be/internal/repository"
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStoreClient struct {
	mu sync.Mutex

	notes      map[uuid.UUID]*dto.ShowNoteResponse
	lookupId   uuid.UUID
	lookupErr  error
	writeErr   error
	created    []*dto.CreateNoteRequest
	updated    []*dto.UpdateNoteRequest
	deleted    []uuid.UUID
	fetchCalls int
	batchCalls int
}

func newFakeStoreClient() *fakeStoreClient {
	return &fakeStoreClient{
		notes: make(map[uuid.UUID]*dto.ShowNoteResponse),
	}
}

func (f *fakeStoreClient) FetchNote(ctx context.Context, id uuid.UUID) (*dto.ShowNoteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetchCalls++
	note, ok := f.notes[id]
	if !ok {
		return nil, serverutils.ErrNotFound
	}
	return note, nil
}

func (f *fakeStoreClient) FetchNotes(ctx context.Context, ids []uuid.UUID) ([]*dto.ShowNoteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batchCalls++
	res := make([]*dto.ShowNoteResponse, 0)
	for _, id := range ids {
		if note, ok := f.notes[id]; ok {
			res = append(res, note)
		}
	}
	return res, nil
}

func (f *fakeStoreClient) LookupByCode(ctx context.Context, code string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lookupErr != nil {
		return uuid.Nil, f.lookupErr
	}
	return f.lookupId, nil
}

func (f *fakeStoreClient) CreateNote(ctx context.Context, req *dto.CreateNoteRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	f.created = append(f.created, req)
	return nil
}

func (f *fakeStoreClient) UpdateNote(ctx context.Context, req *dto.UpdateNoteRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	f.updated = append(f.updated, req)
	return nil
}

func (f *fakeStoreClient) DeleteNote(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type capturePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *capturePublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *capturePublisher) messages(t *testing.T) []dto.PublishNoteMutationMessage {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()

	res := make([]dto.PublishNoteMutationMessage, 0, len(p.payloads))
	for _, raw := range p.payloads {
		var msg dto.PublishNoteMutationMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		res = append(res, msg)
	}
	return res
}

func newTestCache(t *testing.T) repository.ICacheRepository {
	t.Helper()
	return repository.NewCacheRepository(filepath.Join(t.TempDir(), "cache.json"))
}

func strPtr(s string) *string { return &s }

func TestCreateNoteOptimisticLocalInsert(t *testing.T) {
	cache := newTestCache(t)
	store := newFakeStoreClient()
	publisher := &capturePublisher{}
	syncService := NewSyncService(cache, store, publisher)

	id := syncService.CreateNote(context.Background(), "Alice")

	// The local copy exists before any network round-trip.
	note, ok := cache.Get(id)
	require.True(t, ok)
	require.NotNil(t, note.Owner)
	assert.Equal(t, "Alice", *note.Owner)
	assert.Equal(t, []string{"Alice"}, note.Users)
	assert.False(t, note.IsCollaborationOpen)
	assert.Nil(t, note.AccessCode)

	msgs := publisher.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, "create", msgs[0].Op)
	assert.Equal(t, id, msgs[0].NoteId)
	require.NotNil(t, msgs[0].Note)
	assert.Equal(t, id, msgs[0].Note.Id)
}

func TestCreateNoteWithoutOwner(t *testing.T) {
	cache := newTestCache(t)
	syncService := NewSyncService(cache, newFakeStoreClient(), &capturePublisher{})

	id := syncService.CreateNote(context.Background(), "")

	note, ok := cache.Get(id)
	require.True(t, ok)
	assert.Nil(t, note.Owner)
	assert.Empty(t, note.Users)
}

func TestUpdateNoteAppliesLocallyAndPublishes(t *testing.T) {
	cache := newTestCache(t)
	publisher := &capturePublisher{}
	syncService := NewSyncService(cache, newFakeStoreClient(), publisher)

	id := syncService.CreateNote(context.Background(), "Alice")
	before, _ := cache.Get(id)
	beforeStamp := before.LastEdited

	syncService.UpdateNote(context.Background(), id, &dto.UpdateNoteRequest{
		Title: strPtr("groceries"),
	})

	note, _ := cache.Get(id)
	assert.Equal(t, "groceries", note.Title)
	require.NotNil(t, note.Owner)
	assert.Equal(t, "Alice", *note.Owner, "untouched fields survive a partial update")
	assert.False(t, note.LastEdited.Before(beforeStamp))

	msgs := publisher.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, "update", msgs[1].Op)
	require.NotNil(t, msgs[1].Patch)
	require.NotNil(t, msgs[1].Patch.Title)
	assert.Equal(t, "groceries", *msgs[1].Patch.Title)
	assert.Nil(t, msgs[1].Patch.Content)
}

func TestUpdateNoteUnknownIdStillPublishes(t *testing.T) {
	cache := newTestCache(t)
	publisher := &capturePublisher{}
	syncService := NewSyncService(cache, newFakeStoreClient(), publisher)

	syncService.UpdateNote(context.Background(), uuid.New(), &dto.UpdateNoteRequest{
		Title: strPtr("ghost"),
	})

	assert.Empty(t, cache.List())
	assert.Len(t, publisher.messages(t), 1)
}

func TestDeleteNoteRemovesLocallyAndPublishes(t *testing.T) {
	cache := newTestCache(t)
	publisher := &capturePublisher{}
	syncService := NewSyncService(cache, newFakeStoreClient(), publisher)

	id := syncService.CreateNote(context.Background(), "Alice")
	syncService.DeleteNote(context.Background(), id)

	assert.Empty(t, cache.List())

	msgs := publisher.messages(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, "delete", msgs[1].Op)
	assert.Equal(t, id, msgs[1].NoteId)
}

func TestFetchNoteRemoteWins(t *testing.T) {
	cache := newTestCache(t)
	store := newFakeStoreClient()
	syncService := NewSyncService(cache, store, &capturePublisher{})

	id := syncService.CreateNote(context.Background(), "Alice")
	syncService.UpdateNote(context.Background(), id, &dto.UpdateNoteRequest{Title: strPtr("local title")})

	store.notes[id] = &dto.ShowNoteResponse{
		Id:         id,
		Title:      "remote title",
		LastEdited: time.Now(),
	}

	note, err := syncService.FetchNote(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "remote title", note.Title)

	cached, _ := cache.Get(id)
	assert.Equal(t, "remote title", cached.Title)
}

func TestFetchNoteMissingLeavesCacheUnchanged(t *testing.T) {
	cache := newTestCache(t)
	store := newFakeStoreClient()
	syncService := NewSyncService(cache, store, &capturePublisher{})

	id := syncService.CreateNote(context.Background(), "Alice")

	_, err := syncService.FetchNote(context.Background(), uuid.New())
	require.ErrorIs(t, err, serverutils.ErrNotFound)

	notes := cache.List()
	require.Len(t, notes, 1)
	assert.Equal(t, id, notes[0].Id)
}

func TestSyncAllEmptyCacheMakesNoNetworkCall(t *testing.T) {
	store := newFakeStoreClient()
	syncService := NewSyncService(newTestCache(t), store, &capturePublisher{})

	require.NoError(t, syncService.SyncAll(context.Background()))
	assert.Zero(t, store.batchCalls)
}

func TestSyncAllReplacesMatchedAndLeavesUnmatched(t *testing.T) {
	cache := newTestCache(t)
	store := newFakeStoreClient()
	syncService := NewSyncService(cache, store, &capturePublisher{})

	synced := syncService.CreateNote(context.Background(), "Alice")
	orphan := syncService.CreateNote(context.Background(), "Alice")
	syncService.UpdateNote(context.Background(), orphan, &dto.UpdateNoteRequest{Title: strPtr("offline only")})

	store.notes[synced] = &dto.ShowNoteResponse{
		Id:         synced,
		Title:      "server copy",
		LastEdited: time.Now(),
	}

	require.NoError(t, syncService.SyncAll(context.Background()))

	got, _ := cache.Get(synced)
	assert.Equal(t, "server copy", got.Title)

	// Absence from the response never looks like a deletion.
	kept, ok := cache.Get(orphan)
	require.True(t, ok)
	assert.Equal(t, "offline only", kept.Title)
}

func TestMutationsPropagateThroughPipeline(t *testing.T) {
	cache := newTestCache(t)
	store := newFakeStoreClient()

	pubSub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NewStdLogger(false, false))

	publisherService := NewPublisherService("note-mutation", pubSub)
	propagationService := NewPropagationService(pubSub, "note-mutation", store)
	syncService := NewSyncService(cache, store, publisherService)

	ctx := context.Background()
	require.NoError(t, propagationService.Consume(ctx))

	id := syncService.CreateNote(ctx, "Alice")
	syncService.UpdateNote(ctx, id, &dto.UpdateNoteRequest{Title: strPtr("synced")})
	syncService.DeleteNote(ctx, id)

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.created) == 1 && len(store.updated) == 1 && len(store.deleted) == 1
	}, time.Second, 10*time.Millisecond)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, id, store.created[0].Id)

	// The patch id is carried by the message envelope and must survive the
	// serialization round-trip.
	assert.Equal(t, id, store.updated[0].Id)
	require.NotNil(t, store.updated[0].Title)
	assert.Equal(t, "synced", *store.updated[0].Title)

	assert.Equal(t, id, store.deleted[0])
}

func TestWriteFailuresAreSwallowed(t *testing.T) {
	cache := newTestCache(t)
	store := newFakeStoreClient()
	store.writeErr = serverutils.ErrNetworkFailure

	pubSub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NewStdLogger(false, false))

	publisherService := NewPublisherService("note-mutation", pubSub)
	propagationService := NewPropagationService(pubSub, "note-mutation", store)
	syncService := NewSyncService(cache, store, publisherService)

	ctx := context.Background()
	require.NoError(t, propagationService.Consume(ctx))

	// The remote store is unreachable; the local copy stays authoritative.
	id := syncService.CreateNote(ctx, "Alice")
	syncService.UpdateNote(ctx, id, &dto.UpdateNoteRequest{Title: strPtr("offline edit")})

	note, ok := cache.Get(id)
	require.True(t, ok)
	assert.Equal(t, "offline edit", note.Title)
}
