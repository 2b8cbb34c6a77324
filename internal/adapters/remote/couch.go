package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/go-kivik/kivik/v4"
	"github.com/go-kivik/kivik/v4/couchdb"
	"github.com/google/uuid"
)

var _ domain.RemoteStore = (*CouchStore)(nil)

// CouchStore keeps the remote document in a CouchDB database. The sync
// token is used as the password of the configured Couch user.
type CouchStore struct {
	url    string
	user   string
	dbName string
}

func NewCouchStore(url, user, dbName string) *CouchStore {
	return &CouchStore{
		url:    strings.TrimRight(url, "/"),
		user:   user,
		dbName: dbName,
	}
}

type couchDoc struct {
	ID        string    `json:"_id,omitempty"`
	Rev       string    `json:"_rev,omitempty"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *CouchStore) db(op, token string) (*kivik.DB, error) {
	if token == "" {
		return nil, &domain.SyncError{Op: op, Err: domain.ErrMissingToken}
	}
	client, err := kivik.New("couch", s.url, couchdb.BasicAuth(s.user, token))
	if err != nil {
		return nil, &domain.SyncError{Op: op, Err: fmt.Errorf("%w: %v", domain.ErrNetwork, err)}
	}
	return client.DB(s.dbName), nil
}

func couchError(op string, err error) error {
	status := kivik.HTTPStatus(err)
	var kind error
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = domain.ErrAuth
	case http.StatusNotFound:
		kind = domain.ErrNotFound
	default:
		kind = domain.ErrNetwork
	}
	return &domain.SyncError{Op: op, Status: status, Err: fmt.Errorf("%w: %v", kind, err)}
}

func (s *CouchStore) Fetch(ctx context.Context, token, docID string) (*domain.RemoteDocument, error) {
	if docID == "" {
		return nil, &domain.SyncError{Op: "fetch", Err: domain.ErrMissingCredentials}
	}
	db, err := s.db("fetch", token)
	if err != nil {
		return nil, err
	}

	var stored couchDoc
	if err := db.Get(ctx, docID).ScanDoc(&stored); err != nil {
		return nil, couchError("fetch", err)
	}

	doc, err := decodeDocument(stored.Content)
	if err != nil {
		return nil, &domain.SyncError{Op: "fetch", Err: fmt.Errorf("%w: %v", domain.ErrDecode, err)}
	}
	return doc, nil
}

func (s *CouchStore) Replace(ctx context.Context, token, docID string, doc *domain.RemoteDocument) error {
	if docID == "" {
		return &domain.SyncError{Op: "replace", Err: domain.ErrMissingCredentials}
	}
	db, err := s.db("replace", token)
	if err != nil {
		return err
	}

	rev, err := db.GetRev(ctx, docID)
	if err != nil {
		return couchError("replace", err)
	}
	content, err := encodeDocument(doc)
	if err != nil {
		return &domain.SyncError{Op: "replace", Err: fmt.Errorf("%w: %v", domain.ErrDecode, err)}
	}

	if _, err := db.Put(ctx, docID, couchDoc{ID: docID, Rev: rev, Content: content, UpdatedAt: time.Now().UTC()}); err != nil {
		return couchError("replace", err)
	}
	return nil
}

func (s *CouchStore) Create(ctx context.Context, token string, doc *domain.RemoteDocument) (string, error) {
	db, err := s.db("create", token)
	if err != nil {
		return "", err
	}
	content, err := encodeDocument(doc)
	if err != nil {
		return "", &domain.SyncError{Op: "create", Err: fmt.Errorf("%w: %v", domain.ErrDecode, err)}
	}

	docID := fmt.Sprintf("tracker:%s", uuid.New().String())
	if _, err := db.Put(ctx, docID, couchDoc{ID: docID, Content: content, UpdatedAt: time.Now().UTC()}); err != nil {
		return "", couchError("create", err)
	}
	return docID, nil
}
