package models

import "strings"

// DefaultItemType is the GLPI item type used when a caller names none.
const DefaultItemType = "Computer"

// AssetRecord is a transient copy of an item held by the inventory service.
// ID is the only stable key; Serial and SecondaryID come from labels and
// may be duplicated, missing or stale.
type AssetRecord struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Serial      string `json:"serial,omitempty"`
	Model       string `json:"model,omitempty"`
	SecondaryID string `json:"secondary_id,omitempty"`
	LocationID  int    `json:"location_id"`
	UserID      int    `json:"user_id"`
	EntityType  string `json:"entity_type"`
	Comment     string `json:"comment,omitempty"`
}

// ExtractedFields holds candidate identity fields parsed from label text.
// Each field is nil when the label was not found or its value was empty.
type ExtractedFields struct {
	Model        *string `json:"model"`
	Serial       *string `json:"serial"`
	PartNumber   *string `json:"part_number"`
	Manufacturer *string `json:"manufacturer"`
}

// Empty reports whether no field was extracted.
func (f ExtractedFields) Empty() bool {
	return f.Model == nil && f.Serial == nil && f.PartNumber == nil && f.Manufacturer == nil
}

// Classification is the item type and category hint chosen for a label.
type Classification struct {
	ItemType string `json:"item_type"`
	Category string `json:"category"`
}

// StringPtr returns a pointer to the trimmed value, or nil when it is blank.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SearchField names the record attribute an equality search runs against.
type SearchField string

const (
	SearchBySerial      SearchField = "serial"
	SearchBySecondaryID SearchField = "secondary_id"
)

// AssetChanges lists the attributes to write on create or update. Nil
// members are left untouched.
type AssetChanges struct {
	Name        *string
	Model       *string
	Serial      *string
	SecondaryID *string
	Comment     *string
	LocationID  *int
	UserID      *int
}

// Empty reports whether there is nothing to write.
func (c AssetChanges) Empty() bool {
	return c.Name == nil && c.Model == nil && c.Serial == nil && c.SecondaryID == nil &&
		c.Comment == nil && c.LocationID == nil && c.UserID == nil
}
