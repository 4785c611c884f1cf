package intake

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"label-intake-api/internal/apperr"
	"label-intake-api/internal/logging"
	"label-intake-api/internal/models"
	"label-intake-api/internal/qrcode"
	"label-intake-api/internal/resolve"
)

// AutoItemType asks AddEntry to classify the label text.
const AutoItemType = "auto"

const placeholderName = "New Asset"

// AddEntry reads the label, resolves the record it describes and creates or
// updates it. Submitting the same label twice updates the record created
// by the first call.
func (s *Service) AddEntry(ctx context.Context, req models.EntryRequest) (*models.EntryResult, error) {
	if len(req.SpecImage) == 0 {
		return nil, apperr.Wrap(apperr.ErrValidation, "add entry", "spec_image required", nil)
	}
	if _, _, err := qrcode.Inspect(req.SpecImage, qrcode.DefaultMaxPixels); err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, "add entry", "spec_image is not a readable image", err)
	}
	log := logging.FromContext(ctx)

	raw, err := s.ocr.Recognize(ctx, req.SpecImage)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrExternalTool, "add entry", "text recognition failed", err)
	}
	fields := s.fields.Extract(raw)
	class := s.fields.Classify(raw)

	var qrValue *string
	if len(req.QRImage) > 0 {
		if qrValue, err = s.codes.Decode(ctx, req.QRImage); err != nil {
			return nil, err
		}
	}

	itemType := s.itemType(req.ItemType)
	if strings.EqualFold(itemType, AutoItemType) {
		itemType = class.ItemType
	}

	key := resolve.Build(req.ItemID, qrValue, &fields)
	if !key.Valid() {
		return nil, apperr.Wrap(apperr.ErrAmbiguousIdentifier, "add entry",
			"no item_id, readable code or serial number on the label", nil)
	}
	log.Debug("add entry resolved key",
		zap.Stringer("key", key),
		zap.String("item_type", itemType),
		zap.Stringp("model", fields.Model),
		zap.Stringp("serial", fields.Serial),
		zap.Stringp("part_number", fields.PartNumber))

	result := &models.EntryResult{
		ItemType: itemType,
		Category: class.Category,
		Fields:   fields,
		QRValue:  qrValue,
	}

	err = s.withSession(ctx, "add entry", func(sess Session) error {
		rec, err := s.resolve(ctx, sess, itemType, key)
		if err != nil {
			return err
		}

		if rec == nil {
			if key.Kind == resolve.KindByID {
				return apperr.Wrap(apperr.ErrTargetNotFound, "add entry", fmt.Sprintf("%s %d", itemType, key.ID), nil)
			}
			id, err := sess.Create(ctx, itemType, createChanges(fields, qrValue, class.Category))
			if err != nil {
				return err
			}
			result.ID, result.Created = id, true
			return nil
		}

		result.ID = rec.ID
		changes := updateChanges(rec, fields, qrValue)
		if changes.Empty() {
			log.Debug("add entry found nothing new", zap.Int("id", rec.ID))
			return nil
		}
		return sess.Update(ctx, itemType, rec.ID, changes)
	})
	if err != nil {
		return nil, err
	}

	s.recorder.Entry(itemType, result.Created)
	log.Info("entry stored",
		zap.Int("id", result.ID),
		zap.Bool("created", result.Created),
		zap.String("item_type", itemType))
	return result, nil
}

func createChanges(fields models.ExtractedFields, qrValue *string, category string) models.AssetChanges {
	name := placeholderName
	switch {
	case fields.Model != nil:
		name = *fields.Model
	case fields.Serial != nil:
		name = *fields.Serial
	}

	var comment []string
	if fields.Manufacturer != nil {
		comment = append(comment, commentLine(manufacturerLabel, *fields.Manufacturer))
	}
	if category != "" {
		comment = append(comment, commentLine(categoryLabel, category))
	}
	if fields.PartNumber != nil {
		comment = append(comment, commentLine(partNumberLabel, *fields.PartNumber))
	}
	if qrValue != nil {
		comment = append(comment, commentLine(qrLabel, *qrValue))
	}

	changes := models.AssetChanges{
		Name:        &name,
		Model:       fields.Model,
		Serial:      fields.Serial,
		SecondaryID: qrValue,
	}
	if len(comment) > 0 {
		text := strings.Join(comment, "\n")
		changes.Comment = &text
	}
	return changes
}

// updateChanges writes only newly extracted values that differ from the
// stored record. Absent values never clear stored ones.
func updateChanges(rec *models.AssetRecord, fields models.ExtractedFields, qrValue *string) models.AssetChanges {
	var changes models.AssetChanges
	if v := fields.Model; v != nil && *v != rec.Model {
		changes.Model = v
	}
	if v := fields.Serial; v != nil && !strings.EqualFold(*v, rec.Serial) {
		changes.Serial = v
	}
	if qrValue != nil && *qrValue != rec.SecondaryID {
		changes.SecondaryID = qrValue
	}
	if fields.PartNumber != nil {
		if merged := mergeCommentLine(rec.Comment, partNumberLabel, *fields.PartNumber); merged != rec.Comment {
			changes.Comment = &merged
		}
	}
	return changes
}
