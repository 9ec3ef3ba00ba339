// Package client implements the relationship lifecycle client: a thin API
// client that keeps a local cache of the caller's relationships and advances
// them through their lifecycle via the remote service.
//
// The server is the sole arbiter of every transition. On success the cache
// entry for the affected relationship is replaced wholesale with the server's
// returned representation; there is no partial merge, no retry and no
// in-flight deduplication. Concurrent operations on the same relationship are
// last-write-wins from the client's point of view.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"kinship/backend/pkg/apierr"
)

// Client is a relationship lifecycle client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu            sync.RWMutex
	token         string
	relationships []Relationship
	current       *Relationship

	watchers watcherHub
}

// New creates a client for the API at baseURL (without the /api/v1 prefix).
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the bearer token used on every subsequent request,
// typically after login or session rehydration.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Relationships returns a snapshot of the cached relationship list.
func (c *Client) Relationships() []Relationship {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Relationship, len(c.relationships))
	copy(out, c.relationships)
	return out
}

// Current returns a copy of the currently selected relationship, or nil.
func (c *Client) Current() *Relationship {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	cur := *c.current
	return &cur
}

// Invite creates a pending relationship with the caller as initiator and
// prepends it to the cache.
func (c *Client) Invite(ctx context.Context, input InviteInput) (*Relationship, error) {
	if input.Title == "" {
		return nil, apierr.Validation("title is required")
	}
	if (input.PartnerEmail == "") == (input.PartnerID == 0) {
		return nil, apierr.Validation("exactly one of PartnerEmail and PartnerID is required")
	}

	var out relationshipEnvelope
	if err := c.do(ctx, http.MethodPost, "/relationships", input, &out); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.relationships = append([]Relationship{out.Relationship}, c.relationships...)
	c.mu.Unlock()
	c.watchers.broadcast(Event{Type: EventCreated, Relationship: out.Relationship})

	return &out.Relationship, nil
}

// Refresh refetches the full relationship list and replaces the cache.
func (c *Client) Refresh(ctx context.Context) ([]Relationship, error) {
	var out listEnvelope
	if err := c.do(ctx, http.MethodGet, "/relationships?limit=100", nil, &out); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.relationships = out.Relationships
	if c.current != nil {
		cur := *c.current
		c.current = nil
		for i := range out.Relationships {
			if out.Relationships[i].ID == cur.ID {
				r := out.Relationships[i]
				c.current = &r
				break
			}
		}
	}
	c.mu.Unlock()
	c.watchers.broadcast(Event{Type: EventRefreshed})

	return c.Relationships(), nil
}

// Get fetches a single relationship, caches it and makes it the current one.
func (c *Client) Get(ctx context.Context, id uint) (*Relationship, error) {
	var out relationshipEnvelope
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/relationships/%d", id), nil, &out); err != nil {
		return nil, err
	}

	c.replace(out.Relationship, true)
	return &out.Relationship, nil
}

// Accept accepts a pending invitation. Only the invited partner may accept.
func (c *Client) Accept(ctx context.Context, id uint) (*Relationship, error) {
	return c.transition(ctx, id, "accept")
}

// Decline declines a pending invitation and removes it from the cache.
// Declined invitations are not kept as tombstones.
func (c *Client) Decline(ctx context.Context, id uint) error {
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/relationships/%d/decline", id), nil, nil); err != nil {
		return err
	}
	c.remove(id)
	return nil
}

// RequestTypeChange proposes a new closeness type for an active relationship.
func (c *Client) RequestTypeChange(ctx context.Context, id uint, input TypeChangeInput) (*Relationship, error) {
	var out relationshipEnvelope
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/relationships/%d/request-type-change", id), input, &out); err != nil {
		return nil, err
	}
	c.replace(out.Relationship, false)
	return &out.Relationship, nil
}

// AcceptTypeChange applies the pending type change proposed by the other party.
func (c *Client) AcceptTypeChange(ctx context.Context, id uint) (*Relationship, error) {
	return c.transition(ctx, id, "accept-type-change")
}

// DeclineTypeChange rejects the other party's pending type change.
func (c *Client) DeclineTypeChange(ctx context.Context, id uint) (*Relationship, error) {
	return c.transition(ctx, id, "decline-type-change")
}

// CancelTypeChange withdraws the caller's own pending type change.
func (c *Client) CancelTypeChange(ctx context.Context, id uint) (*Relationship, error) {
	return c.transition(ctx, id, "cancel-type-change")
}

// RequestBreakup asks to end an active relationship.
func (c *Client) RequestBreakup(ctx context.Context, id uint) (*Relationship, error) {
	return c.transition(ctx, id, "request-breakup")
}

// ConfirmBreakup ends a relationship whose breakup the other party requested.
func (c *Client) ConfirmBreakup(ctx context.Context, id uint) (*Relationship, error) {
	return c.transition(ctx, id, "confirm-breakup")
}

// Update changes title, description, settings or breakup reason.
func (c *Client) Update(ctx context.Context, id uint, input UpdateInput) (*Relationship, error) {
	var out relationshipEnvelope
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/relationships/%d", id), input, &out); err != nil {
		return nil, err
	}
	c.replace(out.Relationship, false)
	return &out.Relationship, nil
}

// Archive puts an ended relationship away for good.
func (c *Client) Archive(ctx context.Context, id uint) (*Relationship, error) {
	status := StatusArchived
	return c.Update(ctx, id, UpdateInput{Status: &status})
}

// Delete permanently removes a non-active relationship.
func (c *Client) Delete(ctx context.Context, id uint) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/relationships/%d", id), nil, nil); err != nil {
		return err
	}
	c.remove(id)
	return nil
}

// GenerateCertificate issues a new certificate for an active relationship.
// The refreshed record carries the new latest certificate reference.
func (c *Client) GenerateCertificate(ctx context.Context, id uint) (*Relationship, error) {
	var out relationshipEnvelope
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/certificates/relationship/%d/generate", id), nil, &out); err != nil {
		return nil, err
	}
	c.replace(out.Relationship, false)
	return &out.Relationship, nil
}

// region --- internals ---

type relationshipEnvelope struct {
	Relationship Relationship `json:"relationship"`
}

type listEnvelope struct {
	Relationships []Relationship `json:"relationships"`
}

type errorEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// transition runs a body-less POST transition and replaces the cached record.
func (c *Client) transition(ctx context.Context, id uint, action string) (*Relationship, error) {
	var out relationshipEnvelope
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/relationships/%d/%s", id, action), nil, &out); err != nil {
		return nil, err
	}
	c.replace(out.Relationship, false)
	return &out.Relationship, nil
}

// do performs one authenticated round trip. Failures are returned as
// *apierr.Error; there is no retry.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	url := c.baseURL + "/api/v1" + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError classifies a failed response by its error code when present,
// falling back to the HTTP status.
func decodeError(resp *http.Response) error {
	var envelope errorEnvelope
	kind := apierr.KindFromStatus(resp.StatusCode)
	message := fmt.Sprintf("request failed with status %d", resp.StatusCode)

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		if envelope.Code != "" {
			kind = apierr.Kind(envelope.Code)
		}
		if envelope.Message != "" {
			message = envelope.Message
		}
	}

	return apierr.New(kind, "%s", message)
}

// replace swaps the cached record for the server's representation, appending
// if the record was unknown. makeCurrent also selects it as the current one.
func (c *Client) replace(rel Relationship, makeCurrent bool) {
	c.mu.Lock()
	found := false
	for i := range c.relationships {
		if c.relationships[i].ID == rel.ID {
			c.relationships[i] = rel
			found = true
			break
		}
	}
	if !found {
		c.relationships = append([]Relationship{rel}, c.relationships...)
	}
	if makeCurrent || (c.current != nil && c.current.ID == rel.ID) {
		r := rel
		c.current = &r
	}
	c.mu.Unlock()

	c.watchers.broadcast(Event{Type: EventUpdated, Relationship: rel})
}

// remove drops the record from the cache entirely.
func (c *Client) remove(id uint) {
	c.mu.Lock()
	var removed *Relationship
	for i := range c.relationships {
		if c.relationships[i].ID == id {
			r := c.relationships[i]
			removed = &r
			c.relationships = append(c.relationships[:i], c.relationships[i+1:]...)
			break
		}
	}
	if c.current != nil && c.current.ID == id {
		c.current = nil
	}
	c.mu.Unlock()

	if removed != nil {
		c.watchers.broadcast(Event{Type: EventRemoved, Relationship: *removed})
	}
}

// endregion
