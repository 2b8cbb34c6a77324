package remote

import (
	"context"
	"os"
	"testing"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/go-kivik/kivik/v4"
	"github.com/go-kivik/kivik/v4/couchdb"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestCouchStore_MissingToken(t *testing.T) {
	store := NewCouchStore("http://localhost:5984", "pulse", "pulse")

	_, err := store.Fetch(context.Background(), "", "tracker:1")
	assert.ErrorIs(t, err, domain.ErrAuth)

	_, err = store.Create(context.Background(), "", sampleDoc())
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestCouchStore_Integration(t *testing.T) {
	_ = godotenv.Load("../../../.env")

	url := getEnv("COUCH_URL", "http://localhost:5984")
	user := getEnv("COUCH_USER", "admin")
	pass := getEnv("COUCH_PASSWORD", "password")
	dbName := "pulse_test"

	ctx := context.Background()
	client, err := kivik.New("couch", url, couchdb.BasicAuth(user, pass))
	require.NoError(t, err)
	if _, err := client.Version(ctx); err != nil {
		t.Skipf("Skipping CouchDB integration test: %v", err)
	}
	_ = client.DestroyDB(ctx, dbName)
	require.NoError(t, client.CreateDB(ctx, dbName))
	defer client.DestroyDB(ctx, dbName)

	store := NewCouchStore(url, user, dbName)

	docID, err := store.Create(ctx, pass, sampleDoc())
	require.NoError(t, err)
	assert.NotEmpty(t, docID)

	got, err := store.Fetch(ctx, pass, docID)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc(), got)

	updated := sampleDoc()
	updated.Chapters["Physics"]["Paper 1"][0].Done = false
	require.NoError(t, store.Replace(ctx, pass, docID, updated))

	got, err = store.Fetch(ctx, pass, docID)
	require.NoError(t, err)
	assert.False(t, got.Chapters["Physics"]["Paper 1"][0].Done)

	_, err = store.Fetch(ctx, pass, "tracker:missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.Fetch(ctx, "wrong-password", docID)
	assert.ErrorIs(t, err, domain.ErrAuth)
}
