package glpi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"label-intake-api/internal/apperr"
	"label-intake-api/internal/models"
)

var errSessionClosed = errors.New("glpi session closed")

// Session is one authenticated GLPI session. It is not safe for
// concurrent use; each request opens its own.
type Session struct {
	client *Client
	token  string
	closed bool
}

// Close kills the session. Calling it more than once is a no-op.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	// killSession must run even when the request context is already done.
	ctx = context.WithoutCancel(ctx)
	req, err := s.client.newRequest(ctx, http.MethodGet, "/killSession", s.token, nil)
	if err != nil {
		return apperr.Wrap(apperr.ErrUpstream, "glpi kill session", "", err)
	}
	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.ErrUpstream, "glpi kill session", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError("glpi kill session", resp)
	}
	return nil
}

// Search returns summary records (ID and the searched attribute) whose
// field equals value, case-insensitively, in GLPI's default order.
func (s *Session) Search(ctx context.Context, itemType string, field models.SearchField, value string) ([]models.AssetRecord, error) {
	if s.closed {
		return nil, apperr.Wrap(apperr.ErrUpstream, "glpi search", "", errSessionClosed)
	}
	column := "serial"
	if field == models.SearchBySecondaryID {
		column = s.client.secondaryField
	}
	option := searchOptions[column]
	want := normalizeValue(value)
	if want == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("criteria[0][field]", strconv.Itoa(option))
	params.Set("criteria[0][searchtype]", "contains")
	params.Set("criteria[0][value]", "^"+want+"$")
	params.Set("forcedisplay[0]", "2")
	params.Set("forcedisplay[1]", strconv.Itoa(option))
	params.Set("range", "0-49")

	path := "/search/" + url.PathEscape(itemType) + "?" + params.Encode()
	req, err := s.client.newRequest(ctx, http.MethodGet, path, s.token, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, "glpi search", "", err)
	}
	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, "glpi search", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, statusError("glpi search", resp)
	}

	var payload struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, "glpi search", "unexpected response format", err)
	}

	idKey := strconv.Itoa(searchOptions["id"])
	fieldKey := strconv.Itoa(option)
	var out []models.AssetRecord
	for _, row := range payload.Data {
		got := asString(row[fieldKey])
		if !strings.EqualFold(normalizeValue(got), want) {
			continue
		}
		id := asInt(row[idKey])
		if id <= 0 {
			id = asInt(row["id"])
		}
		if id <= 0 {
			return nil, apperr.Wrap(apperr.ErrUpstream, "glpi search", "row without id", nil)
		}
		rec := models.AssetRecord{ID: id, EntityType: itemType}
		if field == models.SearchBySecondaryID {
			rec.SecondaryID = got
		} else {
			rec.Serial = got
		}
		out = append(out, rec)
	}
	return out, nil
}

// Fetch loads one item. A missing item yields apperr.ErrNotFound.
func (s *Session) Fetch(ctx context.Context, itemType string, id int) (*models.AssetRecord, error) {
	if s.closed {
		return nil, apperr.Wrap(apperr.ErrUpstream, "glpi fetch", "", errSessionClosed)
	}
	path := fmt.Sprintf("/%s/%d", url.PathEscape(itemType), id)
	req, err := s.client.newRequest(ctx, http.MethodGet, path, s.token, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, "glpi fetch", "", err)
	}
	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, "glpi fetch", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.Wrap(apperr.ErrNotFound, "glpi fetch", fmt.Sprintf("%s %d", itemType, id), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("glpi fetch", resp)
	}
	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, "glpi fetch", "unexpected response format", err)
	}
	rec := s.client.decodeRecord(itemType, raw)
	if rec.ID == 0 {
		rec.ID = id
	}
	return &rec, nil
}

// Create adds an item and returns its id.
func (s *Session) Create(ctx context.Context, itemType string, changes models.AssetChanges) (int, error) {
	if s.closed {
		return 0, apperr.Wrap(apperr.ErrUpstream, "glpi create", "", errSessionClosed)
	}
	body := map[string]any{"input": s.client.encodeChanges(changes)}
	req, err := s.client.newRequest(ctx, http.MethodPost, "/"+url.PathEscape(itemType), s.token, body)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrUpstream, "glpi create", "", err)
	}
	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrUpstream, "glpi create", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return 0, statusError("glpi create", resp)
	}
	var payload struct {
		ID json.Number `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, apperr.Wrap(apperr.ErrUpstream, "glpi create", "unexpected response format", err)
	}
	id, err := strconv.Atoi(payload.ID.String())
	if err != nil || id <= 0 {
		return 0, apperr.Wrap(apperr.ErrUpstream, "glpi create", "response without id", nil)
	}
	return id, nil
}

// Update writes changes to an existing item.
func (s *Session) Update(ctx context.Context, itemType string, id int, changes models.AssetChanges) error {
	if s.closed {
		return apperr.Wrap(apperr.ErrUpstream, "glpi update", "", errSessionClosed)
	}
	body := map[string]any{"input": s.client.encodeChanges(changes)}
	path := fmt.Sprintf("/%s/%d", url.PathEscape(itemType), id)
	req, err := s.client.newRequest(ctx, http.MethodPut, path, s.token, body)
	if err != nil {
		return apperr.Wrap(apperr.ErrUpstream, "glpi update", "", err)
	}
	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.ErrUpstream, "glpi update", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return apperr.Wrap(apperr.ErrNotFound, "glpi update", fmt.Sprintf("%s %d", itemType, id), nil)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusError("glpi update", resp)
	}
	// GLPI answers [{"<id>": true, "message": ""}]; false means refused.
	var results []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&results); err == nil {
		for _, r := range results {
			if ok, present := r[strconv.Itoa(id)].(bool); present && !ok {
				return apperr.Wrap(apperr.ErrUpstream, "glpi update", asString(r["message"]), nil)
			}
		}
	}
	return nil
}
