package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/google/uuid"
)

// SyllabusSource hands out fresh copies of a bundled default syllabus.
type SyllabusSource interface {
	Syllabus(name string) (domain.SyllabusTree, error)
}

// StateStore is the typed view over the key-value StateRepository. All
// read-modify-write sequences go through Update so the HTTP handlers and the
// background sync worker never interleave.
type StateStore struct {
	repo     domain.StateRepository
	defaults SyllabusSource
	now      func() time.Time
	mu       sync.Mutex
}

func NewStateStore(repo domain.StateRepository, defaults SyllabusSource) *StateStore {
	return &StateStore{
		repo:     repo,
		defaults: defaults,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for lastUpdated stamps.
func (s *StateStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *StateStore) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.repo.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("state store: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: state key %s: %v", domain.ErrDecode, key, err)
	}
	return true, nil
}

func (s *StateStore) getString(ctx context.Context, key string) (string, error) {
	raw, err := s.repo.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("state store: get %s: %w", key, err)
	}
	return string(raw), nil
}

func (s *StateStore) getBool(ctx context.Context, key string, def bool) (bool, error) {
	v, err := s.getString(ctx, key)
	if err != nil || v == "" {
		return def, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, nil
	}
	return b, nil
}

func boolValue(b bool) []byte {
	return []byte(strconv.FormatBool(b))
}

func (s *StateStore) loadLocked(ctx context.Context) (domain.SyllabusTree, domain.DailyCompletion, error) {
	var tree domain.SyllabusTree
	found, err := s.getJSON(ctx, domain.KeySyllabus, &tree)
	if err != nil {
		return nil, nil, err
	}
	if !found || tree == nil {
		name, err := s.getString(ctx, domain.KeySelectedConfig)
		if err != nil {
			return nil, nil, err
		}
		tree, err = s.defaults.Syllabus(name)
		if err != nil {
			return nil, nil, fmt.Errorf("state store: load default syllabus: %w", err)
		}
		raw, err := json.Marshal(tree)
		if err != nil {
			return nil, nil, err
		}
		if err := s.repo.Put(ctx, domain.KeySyllabus, raw); err != nil {
			return nil, nil, fmt.Errorf("state store: persist default syllabus: %w", err)
		}
	}

	daily := domain.DailyCompletion{}
	if _, err := s.getJSON(ctx, domain.KeyDailyTasks, &daily); err != nil {
		return nil, nil, err
	}
	if daily == nil {
		daily = domain.DailyCompletion{}
	}
	return tree, daily, nil
}

func (s *StateStore) saveLocked(ctx context.Context, tree domain.SyllabusTree, daily domain.DailyCompletion, stamp time.Time) error {
	treeRaw, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("state store: encode syllabus: %w", err)
	}
	if daily == nil {
		daily = domain.DailyCompletion{}
	}
	dailyRaw, err := json.Marshal(daily)
	if err != nil {
		return fmt.Errorf("state store: encode daily tasks: %w", err)
	}
	stampRaw, err := json.Marshal(stamp.UTC())
	if err != nil {
		return err
	}
	return s.repo.PutMany(ctx, map[string][]byte{
		domain.KeySyllabus:         treeRaw,
		domain.KeyDailyTasks:       dailyRaw,
		domain.KeyLocalLastUpdated: stampRaw,
	})
}

// Load returns the persisted syllabus and daily map. On first run the
// selected bundled syllabus is persisted and returned.
func (s *StateStore) Load(ctx context.Context) (domain.SyllabusTree, domain.DailyCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// Save overwrites both documents and bumps the local lastUpdated stamp.
func (s *StateStore) Save(ctx context.Context, tree domain.SyllabusTree, daily domain.DailyCompletion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, tree, daily, s.now())
}

// Update loads the state, applies fn and saves the result unless fn fails.
func (s *StateStore) Update(ctx context.Context, fn func(tree domain.SyllabusTree, daily domain.DailyCompletion) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, daily, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}
	if err := fn(tree, daily); err != nil {
		return err
	}
	return s.saveLocked(ctx, tree, daily, s.now())
}

// Replace overwrites tree and daily map wholesale with an explicit stamp.
// A nil daily map keeps the current one.
func (s *StateStore) Replace(ctx context.Context, tree domain.SyllabusTree, daily domain.DailyCompletion, stamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if daily == nil {
		current := domain.DailyCompletion{}
		if _, err := s.getJSON(ctx, domain.KeyDailyTasks, &current); err != nil {
			return err
		}
		daily = current
	}
	return s.saveLocked(ctx, tree, daily, stamp)
}

// LocalLastUpdated reports the stamp of the last local write and whether any
// syllabus has been persisted at all.
func (s *StateStore) LocalLastUpdated(ctx context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.Get(ctx, domain.KeySyllabus); err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("state store: get %s: %w", domain.KeySyllabus, err)
	}
	var stamp time.Time
	if _, err := s.getJSON(ctx, domain.KeyLocalLastUpdated, &stamp); err != nil {
		return time.Time{}, true, err
	}
	return stamp, true, nil
}

func (s *StateStore) Credentials(ctx context.Context) (domain.Credentials, error) {
	var c domain.Credentials
	var err error
	if c.Token, err = s.getString(ctx, domain.KeyRemoteToken); err != nil {
		return c, err
	}
	if c.DocID, err = s.getString(ctx, domain.KeyRemoteDocID); err != nil {
		return c, err
	}
	if c.LastSync, err = s.getString(ctx, domain.KeyLastSync); err != nil {
		return c, err
	}
	return c, nil
}

// SetCredentials stores token and doc id. Empty values delete the key.
func (s *StateStore) SetCredentials(ctx context.Context, token, docID string) error {
	if err := s.putOrDelete(ctx, domain.KeyRemoteToken, token); err != nil {
		return err
	}
	return s.putOrDelete(ctx, domain.KeyRemoteDocID, docID)
}

func (s *StateStore) SetDocID(ctx context.Context, docID string) error {
	return s.putOrDelete(ctx, domain.KeyRemoteDocID, docID)
}

func (s *StateStore) SetLastSync(ctx context.Context, label string) error {
	return s.putOrDelete(ctx, domain.KeyLastSync, label)
}

func (s *StateStore) putOrDelete(ctx context.Context, key, value string) error {
	if value == "" {
		return s.repo.Delete(ctx, key)
	}
	return s.repo.Put(ctx, key, []byte(value))
}

// DateRange returns the stored range or def when none is saved.
func (s *StateStore) DateRange(ctx context.Context, def domain.DateRange) (domain.DateRange, error) {
	var rng domain.DateRange
	found, err := s.getJSON(ctx, domain.KeyDateRange, &rng)
	if err != nil || !found {
		return def, err
	}
	return rng, nil
}

func (s *StateStore) SetDateRange(ctx context.Context, rng domain.DateRange) error {
	raw, err := json.Marshal(rng)
	if err != nil {
		return err
	}
	return s.repo.Put(ctx, domain.KeyDateRange, raw)
}

func (s *StateStore) Preferences(ctx context.Context) (domain.Preferences, error) {
	var p domain.Preferences
	var err error
	if p.ShowTasks, err = s.getBool(ctx, domain.KeyShowTasks, true); err != nil {
		return p, err
	}
	if p.AutoSync, err = s.getBool(ctx, domain.KeyAutoSync, false); err != nil {
		return p, err
	}
	if p.RememberDevice, err = s.getBool(ctx, domain.KeyRememberDevice, false); err != nil {
		return p, err
	}
	if p.SelectedConfig, err = s.getString(ctx, domain.KeySelectedConfig); err != nil {
		return p, err
	}
	if p.SelectedConfig == "" {
		p.SelectedConfig = domain.DefaultConfigName
	}
	return p, nil
}

func (s *StateStore) SetPreferences(ctx context.Context, p domain.Preferences) error {
	return s.repo.PutMany(ctx, map[string][]byte{
		domain.KeyShowTasks:      boolValue(p.ShowTasks),
		domain.KeyAutoSync:       boolValue(p.AutoSync),
		domain.KeyRememberDevice: boolValue(p.RememberDevice),
		domain.KeySelectedConfig: []byte(p.SelectedConfig),
	})
}

func (s *StateStore) PinHash(ctx context.Context) (string, error) {
	return s.getString(ctx, domain.KeyPinHash)
}

func (s *StateStore) SetPinHash(ctx context.Context, hash string) error {
	return s.repo.Put(ctx, domain.KeyPinHash, []byte(hash))
}

func (s *StateStore) SetupCompleted(ctx context.Context) (bool, error) {
	return s.getBool(ctx, domain.KeySetupCompleted, false)
}

func (s *StateStore) MarkSetupCompleted(ctx context.Context) error {
	return s.repo.Put(ctx, domain.KeySetupCompleted, boolValue(true))
}

// DeviceID returns the persistent device identifier, minting one on first use.
func (s *StateStore) DeviceID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.getString(ctx, domain.KeyDeviceID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := s.repo.Put(ctx, domain.KeyDeviceID, []byte(id)); err != nil {
		return "", fmt.Errorf("state store: persist device id: %w", err)
	}
	return id, nil
}

// Forget removes the given keys.
func (s *StateStore) Forget(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Delete(ctx, keys...)
}

// Wipe deletes every key, including credentials and the PIN hash.
func (s *StateStore) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Clear(ctx)
}
