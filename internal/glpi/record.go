package glpi

import (
	"encoding/json"
	"strconv"
	"strings"

	"label-intake-api/internal/models"
)

func (c *Client) decodeRecord(itemType string, raw map[string]any) models.AssetRecord {
	return models.AssetRecord{
		ID:          asInt(raw["id"]),
		Name:        asString(raw["name"]),
		Serial:      asString(raw["serial"]),
		Model:       asString(raw[c.modelField]),
		SecondaryID: asString(raw[c.secondaryField]),
		LocationID:  asInt(raw["locations_id"]),
		UserID:      asInt(raw["users_id"]),
		EntityType:  itemType,
		Comment:     asString(raw["comment"]),
	}
}

// encodeChanges maps logical attributes onto GLPI columns. Model is
// written after Name so it wins when both target the same column.
func (c *Client) encodeChanges(ch models.AssetChanges) map[string]any {
	input := map[string]any{}
	if ch.Name != nil {
		input["name"] = *ch.Name
	}
	if ch.Model != nil {
		input[c.modelField] = *ch.Model
	}
	if ch.Serial != nil {
		input["serial"] = *ch.Serial
	}
	if ch.SecondaryID != nil {
		input[c.secondaryField] = *ch.SecondaryID
	}
	if ch.Comment != nil {
		input["comment"] = *ch.Comment
	}
	if ch.LocationID != nil {
		input["locations_id"] = *ch.LocationID
	}
	if ch.UserID != nil {
		input["users_id"] = *ch.UserID
	}
	return input
}

func normalizeValue(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case json.Number:
		n, _ := strconv.Atoi(t.String())
		return n
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	default:
		return 0
	}
}
