// Package auth signs identities in and out against the ledger keystore.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"toronet-wallet/internal/interfaces"
	"toronet-wallet/internal/ledger"
	"toronet-wallet/internal/models"
	"toronet-wallet/internal/state"
	"toronet-wallet/internal/validation"
)

// ErrUnknownAddress is returned when the ledger does not know the address.
var ErrUnknownAddress = errors.New("address is not registered on the ledger")

// FlowCanceller closes open transaction flows.
type FlowCanceller interface {
	CancelAll()
}

type Service struct {
	keystore interfaces.Keystore
	sessions interfaces.SessionStore
	store    *state.Store
	flows    FlowCanceller
	logger   *zerolog.Logger
}

func NewService(keystore interfaces.Keystore, sessions interfaces.SessionStore, store *state.Store, flows FlowCanceller, logger *zerolog.Logger) *Service {
	return &Service{
		keystore: keystore,
		sessions: sessions,
		store:    store,
		flows:    flows,
		logger:   logger,
	}
}

func (s *Service) track(ctx context.Context, activity state.Activity, fn func(ctx context.Context) error) error {
	key := state.ActivityKey{Activity: activity}
	s.store.SetActivity(key, models.StatusPending, "")

	err := fn(ctx)
	switch {
	case err == nil:
		s.store.SetActivity(key, models.StatusSucceeded, "")
	case errors.Is(ctx.Err(), context.Canceled):
		s.store.SetActivity(key, models.StatusIdle, "")
	default:
		s.store.SetActivity(key, models.StatusFailed, ledger.UserMessage(err))
	}
	return err
}

// Login checks that address exists and, when a password is given, that it
// matches. The identity is then persisted.
func (s *Service) Login(ctx context.Context, address, password string) (models.Identity, error) {
	if err := validation.ValidateAddress(address, ""); err != nil {
		return models.Identity{}, err
	}

	identity := models.Identity{Address: address}
	err := s.track(ctx, state.Authenticating, func(ctx context.Context) error {
		ok, err := s.keystore.IsAddress(ctx, address)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnknownAddress
		}

		if password != "" {
			if _, err := s.keystore.VerifyKey(ctx, address, password); err != nil {
				return err
			}
		}

		return s.sessions.Login(identity)
	})
	if err != nil {
		return models.Identity{}, err
	}

	s.logger.Info().Str("address", address).Msg("User logged in")
	return identity, nil
}

// Register creates a keystore entry for password and logs the new address in.
func (s *Service) Register(ctx context.Context, password, confirm string) (models.Identity, error) {
	if err := validation.ValidatePassword(password, confirm); err != nil {
		return models.Identity{}, err
	}

	var identity models.Identity
	err := s.track(ctx, state.Registering, func(ctx context.Context) error {
		address, err := s.keystore.CreateKey(ctx, password)
		if err != nil {
			return err
		}
		identity = models.Identity{Address: address}
		if err := s.sessions.Login(identity); err != nil {
			return fmt.Errorf("registered %s but failed to store session: %w", address, err)
		}
		return nil
	})
	if err != nil {
		return models.Identity{}, err
	}

	s.logger.Info().Str("address", identity.Address).Msg("User registered")
	return identity, nil
}

// Logout closes open flows, drops identity-scoped state and erases the session.
func (s *Service) Logout() error {
	if s.flows != nil {
		s.flows.CancelAll()
	}
	s.store.Reset()
	if err := s.sessions.Logout(); err != nil {
		return err
	}
	s.logger.Info().Msg("User logged out")
	return nil
}

// Current returns the signed-in identity.
func (s *Service) Current() (models.Identity, bool) {
	return s.sessions.Current()
}
