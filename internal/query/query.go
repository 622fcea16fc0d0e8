// Package query fetches balances, rates and history into the state store.
// Each query kind carries its own status, and the response that settles last
// wins; concurrent fetches of the same kind are not deduplicated.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"toronet-wallet/internal/catalog"
	"toronet-wallet/internal/interfaces"
	"toronet-wallet/internal/ledger"
	"toronet-wallet/internal/metrics"
	"toronet-wallet/internal/models"
	"toronet-wallet/internal/state"
	"toronet-wallet/internal/validation"
)

// ErrNoRate is returned for assets priced in the native token itself.
var ErrNoRate = errors.New("asset has no exchange rate")

type Module struct {
	ledger       interfaces.LedgerQuerier
	store        *state.Store
	historyCount int
	logger       *zerolog.Logger
	metrics      *metrics.Recorder
}

func NewModule(l interfaces.LedgerQuerier, store *state.Store, historyCount int, logger *zerolog.Logger, recorder *metrics.Recorder) *Module {
	return &Module{
		ledger:       l,
		store:        store,
		historyCount: historyCount,
		logger:       logger,
		metrics:      recorder,
	}
}

// run wraps one fetch with the status protocol of kind. fetch writes its own
// result, and must not once the caller has canceled.
func (m *Module) run(ctx context.Context, kind state.QueryKind, fetch func(context.Context) error) error {
	prev := m.store.Query(kind)
	m.store.BeginQuery(kind)

	err := fetch(ctx)
	switch {
	case err == nil:
		m.metrics.Query(string(kind), string(models.StatusSucceeded))
		return nil
	case canceled(ctx):
		m.store.AbandonQuery(kind, prev)
		return err
	}

	m.logger.Warn().
		Err(err).
		Str("query", string(kind)).
		Msg("Query failed")
	m.store.RejectQuery(kind, ledger.UserMessage(err))
	m.metrics.Query(string(kind), string(models.StatusFailed))
	return err
}

func canceled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

func requireIdentity(identity models.Identity) error {
	if identity.Empty() {
		return &validation.Error{Field: "address", Message: "no authenticated identity"}
	}
	return nil
}

// FetchAggregateBalances loads every balance of the identity.
func (m *Module) FetchAggregateBalances(ctx context.Context, identity models.Identity) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	return m.run(ctx, state.Balances, func(ctx context.Context) error {
		values, err := m.ledger.AddressBalances(ctx, identity.Address)
		if err != nil {
			return err
		}
		if canceled(ctx) {
			return ctx.Err()
		}
		m.store.ResolveQuery(state.Balances, values)
		return nil
	})
}

// FetchSingleAssetBalance loads one asset balance into its category snapshot.
func (m *Module) FetchSingleAssetBalance(ctx context.Context, asset catalog.Asset, identity models.Identity) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	kind := state.BalanceKind(asset.Category)
	return m.run(ctx, kind, func(ctx context.Context) error {
		bal, err := m.ledger.Balance(ctx, asset.Category, asset.AssetID, identity.Address)
		if err != nil {
			return err
		}
		if canceled(ctx) {
			return ctx.Err()
		}
		m.store.MergeQuery(kind, map[string]string{asset.BalanceKey: bal.String()})
		return nil
	})
}

// FetchRates loads all rates when asset is nil, otherwise the single rate of
// asset into its category snapshot.
func (m *Module) FetchRates(ctx context.Context, asset *catalog.Asset) error {
	if asset == nil {
		return m.run(ctx, state.Rates, func(ctx context.Context) error {
			values, err := m.ledger.ExchangeRates(ctx)
			if err != nil {
				return err
			}
			if canceled(ctx) {
				return ctx.Err()
			}
			m.store.ResolveQuery(state.Rates, values)
			return nil
		})
	}

	if asset.RateKey == "" {
		return fmt.Errorf("%s: %w", asset.AssetID, ErrNoRate)
	}
	kind := state.RateKind(asset.Category)
	return m.run(ctx, kind, func(ctx context.Context) error {
		rate, err := m.ledger.ExchangeRate(ctx, asset.Category, asset.AssetID)
		if err != nil {
			return err
		}
		if canceled(ctx) {
			return ctx.Err()
		}
		m.store.MergeQuery(kind, map[string]string{asset.RateKey: rate.String()})
		return nil
	})
}

// FetchTransactions loads recent history, combined when asset is nil.
func (m *Module) FetchTransactions(ctx context.Context, identity models.Identity, asset *catalog.Asset) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}

	kind := state.Transactions
	assetID := ""
	if asset != nil {
		kind = state.TransactionsKind(asset.Category)
		assetID = asset.AssetID
	}

	return m.run(ctx, kind, func(ctx context.Context) error {
		records, err := m.ledger.Transactions(ctx, identity.Address, assetID, m.historyCount)
		if err != nil {
			return err
		}
		if canceled(ctx) {
			return ctx.Err()
		}
		m.store.ResolveTransactions(kind, records)
		return nil
	})
}

// FetchLinkedAddresses loads the external addresses linked to the identity
// for a bridged asset.
func (m *Module) FetchLinkedAddresses(ctx context.Context, identity models.Identity, asset catalog.Asset) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if asset.Category != models.Crypto {
		return &validation.Error{Field: "asset", Message: "linked addresses exist only for bridged crypto"}
	}

	return m.run(ctx, state.LinkedAddresses, func(ctx context.Context) error {
		payload, err := m.ledger.ExternalLinks(ctx, asset.Category, asset.AssetID, identity.Address)
		if err != nil {
			return err
		}
		if canceled(ctx) {
			return ctx.Err()
		}
		m.store.ResolveLinks(payload)
		return nil
	})
}

// Refresh refetches what a completed operation on asset can change: the
// aggregate balances, the asset's own balance and its history.
func (m *Module) Refresh(ctx context.Context, identity models.Identity, asset catalog.Asset) error {
	return errors.Join(
		m.FetchAggregateBalances(ctx, identity),
		m.FetchSingleAssetBalance(ctx, asset, identity),
		m.FetchTransactions(ctx, identity, &asset),
	)
}

// Prefetch loads what the dashboard shows on entry.
func (m *Module) Prefetch(ctx context.Context, identity models.Identity) error {
	return errors.Join(
		m.FetchAggregateBalances(ctx, identity),
		m.FetchSingleAssetBalance(ctx, catalog.Native, identity),
		m.FetchRates(ctx, nil),
		m.FetchTransactions(ctx, identity, nil),
	)
}
