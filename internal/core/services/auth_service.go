package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"golang.org/x/crypto/bcrypt"
)

// AuthService owns the local PIN gate. The PIN is a speed bump in front of
// destructive actions and the UI, not an access-control boundary.
type AuthService struct {
	store  *StateStore
	tokens *TokenService
}

func NewAuthService(store *StateStore, tokens *TokenService) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
	}
}

type SetupInput struct {
	Pin            string
	Token          string
	DocID          string
	RememberDevice bool
}

func hashPin(pin string) (string, error) {
	if err := domain.ValidatePin(pin); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth service: hash pin: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) SetupCompleted(ctx context.Context) (bool, error) {
	return s.store.SetupCompleted(ctx)
}

// CompleteSetup stores the PIN hash and optional remote credentials, then
// returns a session token. It refuses to run twice.
func (s *AuthService) CompleteSetup(ctx context.Context, input SetupInput) (string, error) {
	done, err := s.store.SetupCompleted(ctx)
	if err != nil {
		return "", err
	}
	if done {
		return "", domain.ErrSetupCompleted
	}

	hash, err := hashPin(input.Pin)
	if err != nil {
		return "", err
	}
	if err := s.store.SetPinHash(ctx, hash); err != nil {
		return "", fmt.Errorf("auth service: save pin: %w", err)
	}
	if input.Token != "" || input.DocID != "" {
		if err := s.store.SetCredentials(ctx, input.Token, input.DocID); err != nil {
			return "", fmt.Errorf("auth service: save credentials: %w", err)
		}
	}
	prefs, err := s.store.Preferences(ctx)
	if err != nil {
		return "", err
	}
	prefs.RememberDevice = input.RememberDevice
	if err := s.store.SetPreferences(ctx, prefs); err != nil {
		return "", err
	}
	if err := s.store.MarkSetupCompleted(ctx); err != nil {
		return "", fmt.Errorf("auth service: mark setup: %w", err)
	}
	log.Println("[AUTH] setup completed")

	return s.issue(ctx, input.RememberDevice)
}

// VerifyPin fails with ErrSetupRequired before setup and ErrInvalidPin on mismatch.
func (s *AuthService) VerifyPin(ctx context.Context, pin string) error {
	hash, err := s.store.PinHash(ctx)
	if err != nil {
		return err
	}
	if hash == "" {
		return domain.ErrSetupRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.ErrInvalidPin
		}
		return fmt.Errorf("auth service: compare pin: %w", err)
	}
	return nil
}

func (s *AuthService) Unlock(ctx context.Context, pin string, remember bool) (string, error) {
	if err := s.VerifyPin(ctx, pin); err != nil {
		return "", err
	}
	return s.issue(ctx, remember)
}

func (s *AuthService) issue(ctx context.Context, remember bool) (string, error) {
	deviceID, err := s.store.DeviceID(ctx)
	if err != nil {
		return "", err
	}
	return s.tokens.GenerateToken(deviceID, remember)
}

func (s *AuthService) ChangePin(ctx context.Context, current, next string) error {
	if err := s.VerifyPin(ctx, current); err != nil {
		return err
	}
	return s.SetPin(ctx, next)
}

// SetPin replaces the PIN hash without checking the old PIN.
func (s *AuthService) SetPin(ctx context.Context, pin string) error {
	hash, err := hashPin(pin)
	if err != nil {
		return err
	}
	return s.store.SetPinHash(ctx, hash)
}
