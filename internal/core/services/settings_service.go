package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/go-playground/validator/v10"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

type SettingsService struct {
	store    *StateStore
	auth     *AuthService
	tracker  *TrackerService
	defaults SyllabusSource
	validate *validator.Validate
}

func NewSettingsService(store *StateStore, auth *AuthService, tracker *TrackerService, defaults SyllabusSource) *SettingsService {
	return &SettingsService{
		store:    store,
		auth:     auth,
		tracker:  tracker,
		defaults: defaults,
		validate: validator.New(),
	}
}

// PreferencesInput is a partial update; nil fields are left unchanged.
type PreferencesInput struct {
	ShowTasks      *bool   `json:"showTasks"`
	AutoSync       *bool   `json:"autoSync"`
	RememberDevice *bool   `json:"rememberDevice"`
	SelectedConfig *string `json:"selectedConfig"`
}

type ImportResult struct {
	Imported []string `json:"imported"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	var out domain.Settings
	var err error

	if out.Preferences, err = s.store.Preferences(ctx); err != nil {
		return out, err
	}
	if out.DateRange, err = s.tracker.DateRange(ctx); err != nil {
		return out, err
	}
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return out, err
	}
	out.TokenSet = creds.Token != ""
	out.TokenMasked = domain.MaskToken(creds.Token)
	out.DocID = creds.DocID
	out.LastSync = creds.LastSync
	if out.SetupCompleted, err = s.store.SetupCompleted(ctx); err != nil {
		return out, err
	}
	if out.DeviceID, err = s.store.DeviceID(ctx); err != nil {
		return out, err
	}
	return out, nil
}

// SaveCredentials stores token and doc id. Shape problems are only reported
// as warnings.
func (s *SettingsService) SaveCredentials(ctx context.Context, token, docID string) ([]string, error) {
	token, docID = strings.TrimSpace(token), strings.TrimSpace(docID)
	if err := s.store.SetCredentials(ctx, token, docID); err != nil {
		return nil, fmt.Errorf("settings: save credentials: %w", err)
	}
	return domain.CredentialWarnings(token, docID), nil
}

func (s *SettingsService) SaveDateRange(ctx context.Context, rng domain.DateRange) error {
	if err := rng.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return s.store.SetDateRange(ctx, rng)
}

func (s *SettingsService) SavePreferences(ctx context.Context, in PreferencesInput) (domain.Preferences, error) {
	prefs, err := s.store.Preferences(ctx)
	if err != nil {
		return prefs, err
	}
	if in.ShowTasks != nil {
		prefs.ShowTasks = *in.ShowTasks
	}
	if in.AutoSync != nil {
		prefs.AutoSync = *in.AutoSync
	}
	if in.RememberDevice != nil {
		prefs.RememberDevice = *in.RememberDevice
	}
	if in.SelectedConfig != nil {
		if _, err := s.defaults.Syllabus(*in.SelectedConfig); err != nil {
			return prefs, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		prefs.SelectedConfig = *in.SelectedConfig
	}
	if err := s.store.SetPreferences(ctx, prefs); err != nil {
		return prefs, fmt.Errorf("settings: save preferences: %w", err)
	}
	return prefs, nil
}

// ExportPayload builds the QR transfer payload. The PIN must verify and is
// carried in clear inside the payload.
func (s *SettingsService) ExportPayload(ctx context.Context, pin string) (domain.QRPayload, error) {
	if err := s.auth.VerifyPin(ctx, pin); err != nil {
		return domain.QRPayload{}, err
	}
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return domain.QRPayload{}, err
	}
	prefs, err := s.store.Preferences(ctx)
	if err != nil {
		return domain.QRPayload{}, err
	}
	rng, err := s.tracker.DateRange(ctx)
	if err != nil {
		return domain.QRPayload{}, err
	}

	show := prefs.ShowTasks
	return domain.QRPayload{
		Token:          creds.Token,
		DocID:          creds.DocID,
		Pin:            pin,
		SelectedConfig: prefs.SelectedConfig,
		ShowTasks:      &show,
		DateRange: &domain.QRDateRange{
			Start: rng.Start.Format(domain.DateLayout),
			End:   rng.End.Format(domain.DateLayout),
		},
	}, nil
}

// EncodeQR renders the payload JSON as a PNG QR code.
func (s *SettingsService) EncodeQR(payload domain.QRPayload) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("settings: encode payload: %w", err)
	}
	png, err := qrcode.Encode(string(raw), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("settings: render qr: %w", err)
	}
	return png, nil
}

// ParsePayload decodes and validates a QR payload without applying it.
func (s *SettingsService) ParsePayload(raw []byte) (domain.QRPayload, []string, error) {
	var p domain.QRPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, nil, fmt.Errorf("%w: qr payload: %v", domain.ErrDecode, err)
	}
	if err := p.Validate(); err != nil {
		return p, nil, err
	}
	if err := s.validate.Struct(p); err != nil {
		return p, nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if p.DateRange != nil {
		if _, err := p.DateRange.DateRange(s.tracker.Location()); err != nil {
			return p, nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
	}
	return p, domain.CredentialWarnings(p.Token, p.DocID), nil
}

// ImportPayload applies every field present in a QR payload. Before setup is
// complete the payload must carry a PIN, and importing it completes setup.
func (s *SettingsService) ImportPayload(ctx context.Context, raw []byte) (ImportResult, error) {
	p, warnings, err := s.ParsePayload(raw)
	if err != nil {
		return ImportResult{}, err
	}

	completed, err := s.store.SetupCompleted(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	if !completed && p.Pin == "" {
		return ImportResult{}, fmt.Errorf("%w: payload has no PIN", domain.ErrSetupRequired)
	}

	res := ImportResult{Warnings: warnings}
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return res, err
	}
	if p.Token != "" {
		creds.Token = p.Token
		res.Imported = append(res.Imported, "token")
	}
	if p.DocID != "" {
		creds.DocID = p.DocID
		res.Imported = append(res.Imported, "document id")
	}
	if err := s.store.SetCredentials(ctx, creds.Token, creds.DocID); err != nil {
		return res, err
	}

	if p.Pin != "" {
		if err := s.auth.SetPin(ctx, p.Pin); err != nil {
			return res, err
		}
		res.Imported = append(res.Imported, "PIN")
	}
	if p.DateRange != nil {
		rng, _ := p.DateRange.DateRange(s.tracker.Location())
		if err := s.store.SetDateRange(ctx, rng); err != nil {
			return res, err
		}
		res.Imported = append(res.Imported, "date range")
	}
	if p.SelectedConfig != "" || p.ShowTasks != nil {
		in := PreferencesInput{ShowTasks: p.ShowTasks}
		if p.SelectedConfig != "" {
			in.SelectedConfig = &p.SelectedConfig
		}
		if _, err := s.SavePreferences(ctx, in); err != nil {
			return res, err
		}
		res.Imported = append(res.Imported, "preferences")
	}
	if !completed {
		if err := s.store.MarkSetupCompleted(ctx); err != nil {
			return res, err
		}
	}

	log.Printf("[SETTINGS] imported %s", strings.Join(res.Imported, ", "))
	return res, nil
}

// Clear runs a PIN-confirmed destructive action.
func (s *SettingsService) Clear(ctx context.Context, target domain.ClearTarget, pin string) error {
	if err := s.auth.VerifyPin(ctx, pin); err != nil {
		return err
	}

	switch target {
	case domain.ClearRemote:
		if err := s.store.Forget(ctx, domain.KeyRemoteDocID, domain.KeyLastSync); err != nil {
			return fmt.Errorf("settings: clear remote: %w", err)
		}
	case domain.ClearSyllabus:
		return s.tracker.ClearSyllabusCompletion(ctx)
	case domain.ClearProgress:
		return s.tracker.ResetAll(ctx)
	case domain.ClearLocal:
		if err := s.store.Wipe(ctx); err != nil {
			return fmt.Errorf("settings: clear local: %w", err)
		}
	default:
		return fmt.Errorf("%w: unknown clear target %q", domain.ErrValidation, target)
	}
	log.Printf("[SETTINGS] cleared %s at %s", target, time.Now().Format(time.RFC3339))
	return nil
}
