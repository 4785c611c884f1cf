package models

// EntryRequest carries the inputs of an add-entry call after the
// multipart form has been read.
type EntryRequest struct {
	SpecImage []byte
	QRImage   []byte
	// ItemType is a GLPI item type, "auto" to classify from the label
	// text, or empty for DefaultItemType.
	ItemType string
	ItemID   *int
}

// EntryResult is returned by add-entry.
type EntryResult struct {
	ID       int             `json:"id"`
	Created  bool            `json:"created"`
	ItemType string          `json:"item_type"`
	Category string          `json:"category,omitempty"`
	Fields   ExtractedFields `json:"fields"`
	QRValue  *string         `json:"qr_value"`
}

// TargetRequest identifies the record an action applies to. Exactly one of
// ItemID and QRValue must be set.
type TargetRequest struct {
	ItemID   *int    `json:"item_id,omitempty"`
	QRValue  *string `json:"qr_value,omitempty"`
	ItemType string  `json:"item_type,omitempty"`
}

// ChangeLocationRequest is the body of a change-location call.
type ChangeLocationRequest struct {
	TargetRequest
	LocationID int `json:"location_id"`
}

// ChangeUserRequest is the body of a change-user call.
type ChangeUserRequest struct {
	TargetRequest
	UserID int `json:"user_id"`
}

// ActionResult is returned by change-location and change-user.
type ActionResult struct {
	ID      int  `json:"id"`
	Updated bool `json:"updated"`
}

// ScanResult is returned by scan-qr. QRValue is null when nothing decoded.
type ScanResult struct {
	QRValue *string `json:"qr_value"`
}
