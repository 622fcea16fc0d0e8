package main

import (
	"context"
	"time"

	"toronet-wallet/internal/logger"
	"toronet-wallet/internal/query"
	"toronet-wallet/internal/session"
)

// resumeSession restores a persisted identity and warms the dashboard
// figures for it. Whether to keep it is left to the user, who can log out.
func resumeSession(ctx context.Context, sessions *session.Store, queries *query.Module) {
	log := logger.GetLogger()

	identity, ok, err := sessions.Hydrate()
	if err != nil {
		log.Warn().Err(err).Msg("Discarded unreadable session")
	}
	if !ok {
		return
	}

	log.Info().Str("address", identity.Address).Msg("Resuming session")
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := queries.Prefetch(ctx, identity); err != nil {
			log.Warn().Err(err).Str("address", identity.Address).Msg("Prefetch incomplete")
		}
	}()
}
