package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidPin     = errors.New("incorrect PIN")
	ErrPinFormat      = errors.New("PIN must be exactly 4 digits")
	ErrSetupCompleted = errors.New("setup has already been completed")
	ErrSetupRequired  = errors.New("setup has not been completed")
)

var (
	pinRegex   = regexp.MustCompile(`^\d{4}$`)
	hexIDRegex = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

const DefaultConfigName = "hsc"

func ValidatePin(pin string) error {
	if !pinRegex.MatchString(pin) {
		return ErrPinFormat
	}
	return nil
}

// CredentialWarnings returns soft warnings about token/doc id shapes. They
// never block a save.
func CredentialWarnings(token, docID string) []string {
	var warnings []string
	if token != "" && !strings.HasPrefix(token, "ghp_") && !strings.HasPrefix(token, "github_pat_") {
		warnings = append(warnings, "token does not look like a GitHub personal access token (ghp_ or github_pat_)")
	}
	if docID != "" && !hexIDRegex.MatchString(docID) {
		warnings = append(warnings, "document id does not look like a gist id (hexadecimal)")
	}
	return warnings
}

type Preferences struct {
	ShowTasks      bool   `json:"showTasks"`
	AutoSync       bool   `json:"autoSync"`
	SelectedConfig string `json:"selectedConfig"`
	RememberDevice bool   `json:"rememberDevice"`
}

// Settings is the read-only settings view. The token is masked.
type Settings struct {
	Preferences
	DateRange      DateRange `json:"dateRange"`
	TokenSet       bool      `json:"tokenSet"`
	TokenMasked    string    `json:"token,omitempty"`
	DocID          string    `json:"docId,omitempty"`
	LastSync       string    `json:"lastSync,omitempty"`
	SetupCompleted bool      `json:"setupCompleted"`
	DeviceID       string    `json:"deviceId"`
}

func MaskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// QRDateRange carries dates as YYYY-MM-DD strings inside a QR payload.
type QRDateRange struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

func (r QRDateRange) DateRange(loc *time.Location) (DateRange, error) {
	start, err := ParseDate(r.Start, loc)
	if err != nil {
		return DateRange{}, err
	}
	end, err := ParseDate(r.End, loc)
	if err != nil {
		return DateRange{}, err
	}
	rng := DateRange{Start: start, End: end}
	return rng, rng.Validate()
}

// QRPayload is the settings transfer document encoded into a QR code. Every
// field is optional but at least one of githubToken, gistId or pin must be
// present.
type QRPayload struct {
	Token          string       `json:"githubToken,omitempty" validate:"omitempty,max=255"`
	DocID          string       `json:"gistId,omitempty" validate:"omitempty,max=64"`
	Pin            string       `json:"pin,omitempty" validate:"omitempty,len=4,numeric"`
	DateRange      *QRDateRange `json:"dateRange,omitempty"`
	SelectedConfig string       `json:"selectedConfig,omitempty" validate:"omitempty,max=64"`
	ShowTasks      *bool        `json:"showTasks,omitempty"`
}

func (p QRPayload) Empty() bool {
	return p.Token == "" && p.DocID == "" && p.Pin == ""
}

// Validate runs the structural checks that do not need a validator instance.
func (p QRPayload) Validate() error {
	if p.Empty() {
		return fmt.Errorf("%w: payload must contain a token, document id or PIN", ErrValidation)
	}
	if p.Pin != "" {
		if err := ValidatePin(p.Pin); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return nil
}

// ClearTarget names a PIN-confirmed destructive action.
type ClearTarget string

const (
	ClearRemote   ClearTarget = "remote"
	ClearSyllabus ClearTarget = "syllabus"
	ClearLocal    ClearTarget = "local"
	ClearProgress ClearTarget = "progress"
)

func ParseClearTarget(s string) (ClearTarget, error) {
	switch ClearTarget(s) {
	case ClearRemote, ClearSyllabus, ClearLocal, ClearProgress:
		return ClearTarget(s), nil
	}
	return "", fmt.Errorf("%w: unknown clear target %q", ErrValidation, s)
}
