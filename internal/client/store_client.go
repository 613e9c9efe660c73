package client

import (
	"bytes"
	"colabnote-be/internal/dto"
	"colabnote-be/internal/pkg/serverutils"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// INoteStoreClient is the sync engine's view of the remote note store.
type INoteStoreClient interface {
	FetchNote(ctx context.Context, id uuid.UUID) (*dto.ShowNoteResponse, error)
	FetchNotes(ctx context.Context, ids []uuid.UUID) ([]*dto.ShowNoteResponse, error)
	LookupByCode(ctx context.Context, code string) (uuid.UUID, error)
	CreateNote(ctx context.Context, req *dto.CreateNoteRequest) error
	UpdateNote(ctx context.Context, req *dto.UpdateNoteRequest) error
	DeleteNote(ctx context.Context, id uuid.UUID) error
}

type noteStoreClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewNoteStoreClient(baseURL string) INoteStoreClient {
	return &noteStoreClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *noteStoreClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", serverutils.ErrNetworkFailure, err)
	}

	return resp, nil
}

// decodeResponse unwraps the server's response envelope into target.
func decodeResponse[T any](resp *http.Response) (T, error) {
	var zero T

	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return zero, serverutils.ErrNotFound
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return zero, fmt.Errorf("note store error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var envelope serverutils.Response[T]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}

	return envelope.Data, nil
}

func (c *noteStoreClient) FetchNote(ctx context.Context, id uuid.UUID) (*dto.ShowNoteResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/note/%s", id), nil)
	if err != nil {
		return nil, err
	}

	return decodeResponse[*dto.ShowNoteResponse](resp)
}

func (c *noteStoreClient) FetchNotes(ctx context.Context, ids []uuid.UUID) ([]*dto.ShowNoteResponse, error) {
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/note/batch?ids="+strings.Join(raw, ","), nil)
	if err != nil {
		return nil, err
	}

	return decodeResponse[[]*dto.ShowNoteResponse](resp)
}

func (c *noteStoreClient) LookupByCode(ctx context.Context, code string) (uuid.UUID, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/note/lookup?code="+code, nil)
	if err != nil {
		return uuid.Nil, err
	}

	res, err := decodeResponse[*dto.LookupNoteResponse](resp)
	if err != nil {
		return uuid.Nil, err
	}

	return res.Id, nil
}

func (c *noteStoreClient) CreateNote(ctx context.Context, req *dto.CreateNoteRequest) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/note/create", req)
	if err != nil {
		return err
	}

	_, err = decodeResponse[*dto.CreateNoteResponse](resp)
	return err
}

func (c *noteStoreClient) UpdateNote(ctx context.Context, req *dto.UpdateNoteRequest) error {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/v1/note/%s", req.Id), req)
	if err != nil {
		return err
	}

	_, err = decodeResponse[*dto.UpdateNoteResponse](resp)
	return err
}

func (c *noteStoreClient) DeleteNote(ctx context.Context, id uuid.UUID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/note/%s", id), nil)
	if err != nil {
		return err
	}

	_, err = decodeResponse[any](resp)
	return err
}
