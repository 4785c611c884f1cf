package resolve

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"label-intake-api/internal/apperr"
	"label-intake-api/internal/logging"
	"label-intake-api/internal/models"
)

// Inventory is the read side of the inventory service used for lookups.
type Inventory interface {
	Search(ctx context.Context, itemType string, field models.SearchField, value string) ([]models.AssetRecord, error)
	Fetch(ctx context.Context, itemType string, id int) (*models.AssetRecord, error)
}

// Resolver maps a Key to at most one record.
type Resolver struct {
	// Strict rejects searches with more than one match instead of taking
	// the first one.
	Strict bool
}

// Resolve returns the matching record, or nil when nothing matches. An
// invalid key fails with apperr.ErrAmbiguousIdentifier.
func (r Resolver) Resolve(ctx context.Context, inv Inventory, itemType string, key Key) (*models.AssetRecord, error) {
	log := logging.FromContext(ctx).With(zap.String("item_type", itemType), zap.Stringer("key", key))

	switch key.Kind {
	case KindByID:
		return r.fetch(ctx, inv, itemType, key.ID)
	case KindBySecondary:
		return r.search(ctx, log, inv, itemType, models.SearchBySecondaryID, key.Value)
	case KindBySerial:
		return r.search(ctx, log, inv, itemType, models.SearchBySerial, key.Value)
	default:
		return nil, apperr.Wrap(apperr.ErrAmbiguousIdentifier, "resolve", "no identifying input", nil)
	}
}

func (r Resolver) search(ctx context.Context, log *zap.Logger, inv Inventory, itemType string, field models.SearchField, value string) (*models.AssetRecord, error) {
	matches, err := inv.Search(ctx, itemType, field, value)
	if err != nil {
		return nil, err
	}
	switch {
	case len(matches) == 0:
		log.Debug("no match")
		return nil, nil
	case len(matches) > 1 && r.Strict:
		return nil, apperr.Wrap(apperr.ErrAmbiguousMatch, "resolve",
			fmt.Sprintf("%d %s records share %s %q", len(matches), itemType, field, value), nil)
	case len(matches) > 1:
		log.Warn("duplicate matches, using first", zap.Int("matches", len(matches)), zap.Int("id", matches[0].ID))
	}
	return r.fetch(ctx, inv, itemType, matches[0].ID)
}

func (r Resolver) fetch(ctx context.Context, inv Inventory, itemType string, id int) (*models.AssetRecord, error) {
	rec, err := inv.Fetch(ctx, itemType, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
