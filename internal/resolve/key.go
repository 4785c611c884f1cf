// Package resolve turns identifying inputs into one inventory lookup key and
// resolves that key to at most one record.
package resolve

import (
	"fmt"
	"strings"

	"label-intake-api/internal/apperr"
	"label-intake-api/internal/models"
)

// Kind tags a Key.
type Kind int

const (
	KindInvalid Kind = iota
	KindByID
	KindBySecondary
	KindBySerial
)

func (k Kind) String() string {
	switch k {
	case KindByID:
		return "id"
	case KindBySecondary:
		return "secondary"
	case KindBySerial:
		return "serial"
	default:
		return "invalid"
	}
}

// Key is exactly one lookup strategy. Only the member matching Kind is set.
type Key struct {
	Kind  Kind
	ID    int
	Value string
}

func ByID(id int) Key { return Key{Kind: KindByID, ID: id} }

func BySecondary(token string) Key { return Key{Kind: KindBySecondary, Value: token} }

func BySerial(serial string) Key { return Key{Kind: KindBySerial, Value: serial} }

// Valid reports whether the key names a lookup.
func (k Key) Valid() bool { return k.Kind != KindInvalid }

func (k Key) String() string {
	switch k.Kind {
	case KindByID:
		return fmt.Sprintf("ById(%d)", k.ID)
	case KindBySecondary:
		return fmt.Sprintf("BySecondaryIdentifier(%q)", k.Value)
	case KindBySerial:
		return fmt.Sprintf("BySerial(%q)", k.Value)
	default:
		return "Invalid"
	}
}

// Build applies the fixed precedence item id > secondary identifier >
// extracted serial. Non-positive ids and blank strings count as absent.
func Build(itemID *int, qrValue *string, fields *models.ExtractedFields) Key {
	if itemID != nil && *itemID > 0 {
		return ByID(*itemID)
	}
	if token := present(qrValue); token != "" {
		return BySecondary(token)
	}
	if fields != nil {
		if serial := present(fields.Serial); serial != "" {
			return BySerial(serial)
		}
	}
	return Key{}
}

// Target builds the key for an action that requires exactly one of item id
// and secondary identifier. Both or neither is rejected.
func Target(itemID *int, qrValue *string) (Key, error) {
	hasID := itemID != nil && *itemID > 0
	hasToken := present(qrValue) != ""
	switch {
	case hasID && hasToken:
		return Key{}, apperr.Wrap(apperr.ErrAmbiguousIdentifier, "resolve target", "supply either item_id or qr_value, not both", nil)
	case !hasID && !hasToken:
		return Key{}, apperr.Wrap(apperr.ErrAmbiguousIdentifier, "resolve target", "item_id or qr_value is required", nil)
	}
	return Build(itemID, qrValue, nil), nil
}

func present(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
