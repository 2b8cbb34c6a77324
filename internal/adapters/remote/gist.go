package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
)

const (
	DefaultGistAPI  = "https://api.github.com"
	GistFileName    = "hsc-study-tracker.json"
	GistDescription = "HSC Study Tracker Progress - Syllabus Pulse"
)

var _ domain.RemoteStore = (*GistStore)(nil)

// GistStore keeps the remote document as a single file in a private GitHub Gist.
type GistStore struct {
	baseURL string
	client  *http.Client
}

func NewGistStore(baseURL string, timeout time.Duration) *GistStore {
	if baseURL == "" {
		baseURL = DefaultGistAPI
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GistStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type gistFile struct {
	Content string `json:"content"`
}

type gistEnvelope struct {
	ID          string              `json:"id,omitempty"`
	Description string              `json:"description,omitempty"`
	Public      *bool               `json:"public,omitempty"`
	Files       map[string]gistFile `json:"files"`
}

func encodeDocument(doc *domain.RemoteDocument) (string, error) {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeDocument(content string) (*domain.RemoteDocument, error) {
	var doc domain.RemoteDocument
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// statusError maps a non-2xx response onto the sync error kinds.
func statusError(op string, status int) error {
	var kind error
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = domain.ErrAuth
	case http.StatusNotFound:
		kind = domain.ErrNotFound
	default:
		kind = domain.ErrNetwork
	}
	return &domain.SyncError{Op: op, Status: status, Err: kind}
}

func (s *GistStore) do(ctx context.Context, op, method, path, token string, body any, out any) error {
	if token == "" {
		return &domain.SyncError{Op: op, Err: domain.ErrMissingToken}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &domain.SyncError{Op: op, Err: fmt.Errorf("%w: %v", domain.ErrDecode, err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return &domain.SyncError{Op: op, Err: fmt.Errorf("%w: %v", domain.ErrNetwork, err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &domain.SyncError{Op: op, Err: fmt.Errorf("%w: %v", domain.ErrNetwork, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return statusError(op, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.SyncError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%w: %v", domain.ErrDecode, err)}
	}
	return nil
}

func (s *GistStore) Fetch(ctx context.Context, token, docID string) (*domain.RemoteDocument, error) {
	if docID == "" {
		return nil, &domain.SyncError{Op: "fetch", Err: domain.ErrMissingCredentials}
	}

	var env gistEnvelope
	if err := s.do(ctx, "fetch", http.MethodGet, "/gists/"+url.PathEscape(docID), token, nil, &env); err != nil {
		return nil, err
	}

	file, ok := env.Files[GistFileName]
	if !ok {
		return nil, &domain.SyncError{Op: "fetch", Err: fmt.Errorf("%w: gist has no %s", domain.ErrNotFound, GistFileName)}
	}
	doc, err := decodeDocument(file.Content)
	if err != nil {
		return nil, &domain.SyncError{Op: "fetch", Err: fmt.Errorf("%w: %v", domain.ErrDecode, err)}
	}
	return doc, nil
}

func (s *GistStore) Replace(ctx context.Context, token, docID string, doc *domain.RemoteDocument) error {
	if docID == "" {
		return &domain.SyncError{Op: "replace", Err: domain.ErrMissingCredentials}
	}
	content, err := encodeDocument(doc)
	if err != nil {
		return &domain.SyncError{Op: "replace", Err: fmt.Errorf("%w: %v", domain.ErrDecode, err)}
	}

	body := gistEnvelope{Files: map[string]gistFile{GistFileName: {Content: content}}}
	return s.do(ctx, "replace", http.MethodPatch, "/gists/"+url.PathEscape(docID), token, body, nil)
}

func (s *GistStore) Create(ctx context.Context, token string, doc *domain.RemoteDocument) (string, error) {
	content, err := encodeDocument(doc)
	if err != nil {
		return "", &domain.SyncError{Op: "create", Err: fmt.Errorf("%w: %v", domain.ErrDecode, err)}
	}

	public := false
	body := gistEnvelope{
		Description: GistDescription,
		Public:      &public,
		Files:       map[string]gistFile{GistFileName: {Content: content}},
	}

	var created gistEnvelope
	if err := s.do(ctx, "create", http.MethodPost, "/gists", token, body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", &domain.SyncError{Op: "create", Err: fmt.Errorf("%w: response has no gist id", domain.ErrDecode)}
	}
	return created.ID, nil
}
