package domain

import (
	"context"
	"time"
)

const (
	DeviceInitial = "initial"
	DeviceDesktop = "desktop"
)

// RemoteDocument is the single JSON blob kept in the remote store. Field names
// match the documents written by earlier versions of the tracker.
type RemoteDocument struct {
	Chapters    SyllabusTree    `json:"chapters"`
	DailyTasks  DailyCompletion `json:"dailyTasks,omitempty"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Device      string          `json:"device"`
}

type Credentials struct {
	Token    string `json:"token"`
	DocID    string `json:"docId"`
	LastSync string `json:"lastSync"`
}

func (c Credentials) Ready() bool {
	return c.Token != "" && c.DocID != ""
}

type RemoteStore interface {
	// Fetch reads the document. Fails with ErrNotFound, ErrAuth, ErrNetwork or ErrDecode.
	Fetch(ctx context.Context, token, docID string) (*RemoteDocument, error)

	// Replace overwrites the document. No retries are attempted.
	Replace(ctx context.Context, token, docID string, doc *RemoteDocument) error

	// Create mints a new document and returns its id, which the caller must persist.
	Create(ctx context.Context, token string, doc *RemoteDocument) (string, error)
}

type SyncState string

const (
	SyncIdle    SyncState = "idle"
	SyncSyncing SyncState = "syncing"
	SyncSuccess SyncState = "success"
	SyncFailed  SyncState = "error"
)

type SyncStatus struct {
	State    SyncState `json:"state"`
	Label    string    `json:"label"`
	LastSync string    `json:"lastSync,omitempty"`
	Error    string    `json:"error,omitempty"`
	Ready    bool      `json:"ready"`
}
