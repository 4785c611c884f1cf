package intake

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"label-intake-api/internal/apperr"
	"label-intake-api/internal/logging"
	"label-intake-api/internal/models"
	"label-intake-api/internal/resolve"
)

// CheckEntry returns the current record without changing it.
func (s *Service) CheckEntry(ctx context.Context, req models.TargetRequest) (*models.AssetRecord, error) {
	var out *models.AssetRecord
	err := s.onTarget(ctx, "check entry", req, func(_ Session, rec *models.AssetRecord, _ string) error {
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ChangeLocation moves the resolved record to req.LocationID.
func (s *Service) ChangeLocation(ctx context.Context, req models.ChangeLocationRequest) (*models.ActionResult, error) {
	if req.LocationID < 0 {
		return nil, apperr.Wrap(apperr.ErrValidation, "change location", "location_id must not be negative", nil)
	}
	location := req.LocationID
	return s.mutate(ctx, "change location", req.TargetRequest, models.AssetChanges{LocationID: &location})
}

// ChangeUser assigns the resolved record to req.UserID.
func (s *Service) ChangeUser(ctx context.Context, req models.ChangeUserRequest) (*models.ActionResult, error) {
	if req.UserID < 0 {
		return nil, apperr.Wrap(apperr.ErrValidation, "change user", "user_id must not be negative", nil)
	}
	user := req.UserID
	return s.mutate(ctx, "change user", req.TargetRequest, models.AssetChanges{UserID: &user})
}

func (s *Service) mutate(ctx context.Context, operation string, target models.TargetRequest, changes models.AssetChanges) (*models.ActionResult, error) {
	result := &models.ActionResult{}
	err := s.onTarget(ctx, operation, target, func(sess Session, rec *models.AssetRecord, itemType string) error {
		result.ID = rec.ID
		if err := sess.Update(ctx, itemType, rec.ID, changes); err != nil {
			return err
		}
		result.Updated = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info(operation, zap.Int("id", result.ID))
	return result, nil
}

// onTarget validates the identifier before any inventory call, resolves
// the record and hands it to fn within one session.
func (s *Service) onTarget(ctx context.Context, operation string, target models.TargetRequest, fn func(Session, *models.AssetRecord, string) error) error {
	key, err := resolve.Target(target.ItemID, target.QRValue)
	if err != nil {
		return err
	}
	itemType := s.itemType(target.ItemType)

	return s.withSession(ctx, operation, func(sess Session) error {
		rec, err := s.resolve(ctx, sess, itemType, key)
		if err != nil {
			return err
		}
		if rec == nil {
			return apperr.Wrap(apperr.ErrTargetNotFound, operation, fmt.Sprintf("%s matching %s", itemType, key), nil)
		}
		return fn(sess, rec, itemType)
	})
}
