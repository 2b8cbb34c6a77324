package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
)

const (
	LastSyncLayout = "2006-01-02 15:04:05"

	// Success and error states fall back to idle after this long.
	statusLinger = 3 * time.Second
)

// Scheduler queues a debounced push.
type Scheduler interface {
	Schedule()
}

type SyncConfig struct {
	Device   string
	Location *time.Location
}

type SyncService struct {
	store     *StateStore
	remote    domain.RemoteStore
	events    *Events
	scheduler Scheduler
	cfg       SyncConfig
	now       func() time.Time

	mu        sync.Mutex
	state     domain.SyncState
	lastErr   string
	changedAt time.Time
}

func NewSyncService(store *StateStore, remote domain.RemoteStore, events *Events, cfg SyncConfig) *SyncService {
	if cfg.Device == "" {
		cfg.Device = domain.DeviceDesktop
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	s := &SyncService{
		store:  store,
		remote: remote,
		events: events,
		cfg:    cfg,
		now:    time.Now,
		state:  domain.SyncIdle,
	}
	events.Subscribe(s.handleEvent)
	return s
}

func (s *SyncService) SetScheduler(sch Scheduler) {
	s.scheduler = sch
}

func (s *SyncService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SyncService) setState(state domain.SyncState, err error) {
	s.mu.Lock()
	s.state = state
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}
	s.changedAt = s.now()
	s.mu.Unlock()

	s.events.Publish(Event{Type: EventSyncStatus, Payload: string(state)})
}

// Status returns the sync status view. Success and error decay back to idle.
func (s *SyncService) Status(ctx context.Context) domain.SyncStatus {
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		log.Printf("[SYNC] status: reading credentials: %v", err)
	}

	s.mu.Lock()
	state, lastErr, changedAt := s.state, s.lastErr, s.changedAt
	s.mu.Unlock()

	if (state == domain.SyncSuccess || state == domain.SyncFailed) && s.now().Sub(changedAt) > statusLinger {
		state = domain.SyncIdle
	}

	st := domain.SyncStatus{State: state, LastSync: creds.LastSync, Ready: creds.Ready()}
	switch state {
	case domain.SyncSyncing:
		st.Label = "Syncing..."
	case domain.SyncSuccess:
		st.Label = "Synced"
	case domain.SyncFailed:
		st.Label = "Sync failed"
		st.Error = lastErr
	default:
		switch {
		case !creds.Ready():
			st.Label = "Offline mode"
		case creds.LastSync != "":
			st.Label = "Last sync: " + creds.LastSync
		default:
			st.Label = "Ready to sync"
		}
	}
	return st
}

func (s *SyncService) recordSync(ctx context.Context) error {
	label := s.now().In(s.cfg.Location).Format(LastSyncLayout)
	if err := s.store.SetLastSync(ctx, label); err != nil {
		return fmt.Errorf("sync: record last sync: %w", err)
	}
	return nil
}

func (s *SyncService) fail(op string, err error) error {
	s.setState(domain.SyncFailed, err)
	log.Printf("[SYNC] %s failed: %v", op, err)
	return fmt.Errorf("sync: %s: %w", op, err)
}

// Pull fetches the remote document and adopts it when forced or when the
// merge policy prefers it. Local state is untouched on any failure.
func (s *SyncService) Pull(ctx context.Context, force bool) (bool, error) {
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return false, err
	}
	if !creds.Ready() {
		return false, domain.ErrMissingCredentials
	}

	s.setState(domain.SyncSyncing, nil)
	doc, err := s.remote.Fetch(ctx, creds.Token, creds.DocID)
	if err != nil {
		return false, s.fail("pull", err)
	}
	if doc.Chapters == nil {
		return false, s.fail("pull", fmt.Errorf("%w: remote document has no chapters", domain.ErrDecode))
	}
	if err := doc.Chapters.Validate(); err != nil {
		return false, s.fail("pull", fmt.Errorf("%w: %v", domain.ErrDecode, err))
	}

	localStamp, localExists, err := s.store.LocalLastUpdated(ctx)
	if err != nil {
		return false, s.fail("pull", err)
	}

	adopt := force || domain.ShouldAdoptRemote(doc.LastUpdated, localStamp, localExists)
	if adopt {
		if err := s.store.Replace(ctx, doc.Chapters, doc.DailyTasks, doc.LastUpdated); err != nil {
			return false, s.fail("pull", err)
		}
		log.Printf("[SYNC] adopted remote document from %s (device %s)", doc.LastUpdated.Format(time.RFC3339), doc.Device)
		s.events.Publish(Event{Type: EventStateChanged, Origin: OriginRemote, Payload: "pull"})
	} else {
		log.Printf("[SYNC] local copy is newer, keeping it")
	}

	if err := s.recordSync(ctx); err != nil {
		return adopt, s.fail("pull", err)
	}
	s.setState(domain.SyncSuccess, nil)
	return adopt, nil
}

// PullOnStartup runs a non-forced pull when credentials are configured.
// Failures are logged and never stop startup.
func (s *SyncService) PullOnStartup(ctx context.Context) {
	creds, err := s.store.Credentials(ctx)
	if err != nil || !creds.Ready() {
		return
	}
	if _, err := s.Pull(ctx, false); err != nil {
		log.Printf("[SYNC] startup pull skipped: %v", err)
	}
}

func (s *SyncService) snapshot(ctx context.Context, device string) (*domain.RemoteDocument, error) {
	tree, daily, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.RemoteDocument{
		Chapters:    tree,
		DailyTasks:  daily,
		LastUpdated: s.now().UTC(),
		Device:      device,
	}, nil
}

// Push overwrites the remote document with the current local state.
func (s *SyncService) Push(ctx context.Context) error {
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return err
	}
	if !creds.Ready() {
		return domain.ErrMissingCredentials
	}

	s.setState(domain.SyncSyncing, nil)
	doc, err := s.snapshot(ctx, s.cfg.Device)
	if err != nil {
		return s.fail("push", err)
	}
	if err := s.remote.Replace(ctx, creds.Token, creds.DocID, doc); err != nil {
		return s.fail("push", err)
	}
	if err := s.recordSync(ctx); err != nil {
		return s.fail("push", err)
	}
	s.setState(domain.SyncSuccess, nil)
	return nil
}

// CreateDocument mints a new remote document from local state and stores
// its id.
func (s *SyncService) CreateDocument(ctx context.Context) (string, error) {
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return "", err
	}
	if creds.Token == "" {
		return "", domain.ErrMissingToken
	}

	s.setState(domain.SyncSyncing, nil)
	doc, err := s.snapshot(ctx, domain.DeviceInitial)
	if err != nil {
		return "", s.fail("create", err)
	}
	id, err := s.remote.Create(ctx, creds.Token, doc)
	if err != nil {
		return "", s.fail("create", err)
	}
	if err := s.store.SetDocID(ctx, id); err != nil {
		return "", s.fail("create", err)
	}
	if err := s.recordSync(ctx); err != nil {
		return "", s.fail("create", err)
	}
	log.Printf("[SYNC] created remote document %s", id)
	s.setState(domain.SyncSuccess, nil)
	return id, nil
}

// PullOrCreate is the single "sync from cloud" action: a forced pull when a
// document id is configured, otherwise a new document.
func (s *SyncService) PullOrCreate(ctx context.Context) (created bool, err error) {
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return false, err
	}
	if creds.DocID == "" {
		_, err := s.CreateDocument(ctx)
		return err == nil, err
	}
	_, err = s.Pull(ctx, true)
	return false, err
}

func (s *SyncService) handleEvent(evt Event) {
	if evt.Type != EventStateChanged || evt.Origin != OriginLocal || s.scheduler == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	prefs, err := s.store.Preferences(ctx)
	if err != nil || !prefs.AutoSync {
		return
	}
	creds, err := s.store.Credentials(ctx)
	if err != nil || !creds.Ready() {
		return
	}
	s.scheduler.Schedule()
}
