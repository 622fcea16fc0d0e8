package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"toronet-wallet/internal/catalog"
	"toronet-wallet/internal/models"
	"toronet-wallet/internal/state"
)

// MintAuthority supplies the privileged credentials for a mint request.
// Credentials never come from the caller of Mint.
type MintAuthority interface {
	Credentials(ctx context.Context, asset catalog.Asset) (admin, password string, err error)
}

// StaticAuthority holds operator-configured mint credentials.
type StaticAuthority struct {
	Admin    string
	Password string
}

func (a StaticAuthority) Credentials(_ context.Context, _ catalog.Asset) (string, string, error) {
	if a.Admin == "" || a.Password == "" {
		return "", "", ErrMintUnavailable
	}
	return a.Admin, a.Password, nil
}

// Mint credits the intent's amount of the asset to the identity. It skips
// fee quoting and the confirmation gate.
func (o *Orchestrator) Mint(ctx context.Context, intent Intent) (*Receipt, error) {
	intent.Kind = models.Mint
	if canonical, ok := catalog.ByAssetID(intent.Asset.Category, intent.Asset.AssetID); ok {
		intent.Asset = canonical
	}
	amount, err := validate(intent)
	if err != nil {
		return nil, err
	}
	if o.authority == nil {
		return nil, ErrMintUnavailable
	}

	op := mintOps[intent.Asset.Category]
	key := state.ActivityKey{Activity: state.Minting, Kind: models.Mint, AssetID: intent.Asset.AssetID}
	fingerprint := intent.Identity.Address + "|" + amount.String()

	v, err := o.execute(ctx, key, fingerprint, func(ctx context.Context) (any, error) {
		admin, password, err := o.authority.Credentials(ctx, intent.Asset)
		if err != nil {
			return nil, err
		}
		req := models.Request{
			Op:     op,
			Params: mintParams(admin, password, intent.Identity.Address, amount.String()),
		}
		env, err := o.transactor.Import(ctx, intent.Asset.Category, intent.Asset.AssetID, req)
		if err != nil {
			return nil, err
		}
		receipt := &Receipt{
			ID:       uuid.NewString(),
			Kind:     models.Mint,
			Category: intent.Asset.Category,
			AssetID:  intent.Asset.AssetID,
			Amount:   amount,
			Message:  env.Message,
			At:       o.now(),
		}
		o.metrics.Operation(models.Mint.String(), "submit", string(models.StatusSucceeded))
		o.logger.Info().
			Str("asset", receipt.AssetID).
			Str("amount", receipt.Amount.String()).
			Msg("Mint completed")

		o.emit(receipt.event(intent.Identity.Address, models.StatusSucceeded))
		o.refresh(context.WithoutCancel(ctx), intent.Identity, intent.Asset)
		return receipt, nil
	})
	if err != nil {
		if !errors.Is(err, ErrInFlight) {
			o.metrics.Operation(models.Mint.String(), "submit", string(models.StatusFailed))
		}
		if errors.Is(err, ErrMintUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("mint %s: %w", intent.Asset.AssetID, err)
	}

	return v.(*Receipt), nil
}
