package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"charcha/client/internal/models"
)

// Error is a non-2xx response from the backend
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Body)
}

// Client is a thin HTTP wrapper over the backend's /api/v1 surface
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a REST client for the given base URL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Groups

func (c *Client) GetGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := c.do(ctx, http.MethodGet, "/api/v1/groups", nil, nil, &groups)
	return groups, err
}

func (c *Client) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	var group models.Group
	err := c.do(ctx, http.MethodGet, "/api/v1/groups/"+groupID, nil, nil, &group)
	return group, err
}

func (c *Client) CreateGroup(ctx context.Context, req models.CreateGroupRequest) (models.Group, error) {
	var group models.Group
	err := c.do(ctx, http.MethodPost, "/api/v1/groups", nil, req, &group)
	return group, err
}

func (c *Client) UpdateGroup(ctx context.Context, groupID string, req models.UpdateGroupRequest) (models.Group, error) {
	var group models.Group
	err := c.do(ctx, http.MethodPut, "/api/v1/groups/"+groupID, nil, req, &group)
	return group, err
}

func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/groups/"+groupID, nil, nil, nil)
}

func (c *Client) GetGroupMembers(ctx context.Context, groupID string) ([]models.Character, error) {
	var members []models.Character
	err := c.do(ctx, http.MethodGet, "/api/v1/groups/"+groupID+"/characters", nil, nil, &members)
	return members, err
}

func (c *Client) GetAvailableCharacters(ctx context.Context, groupID string) ([]models.Character, error) {
	var characters []models.Character
	err := c.do(ctx, http.MethodGet, "/api/v1/groups/"+groupID+"/available-characters", nil, nil, &characters)
	return characters, err
}

func (c *Client) AddCharacterToGroup(ctx context.Context, groupID, characterID string) (models.Group, error) {
	var group models.Group
	req := models.AddMemberRequest{CharacterID: characterID}
	err := c.do(ctx, http.MethodPost, "/api/v1/groups/"+groupID+"/members", nil, req, &group)
	return group, err
}

func (c *Client) RemoveCharacterFromGroup(ctx context.Context, groupID, characterID string) (models.Group, error) {
	var group models.Group
	err := c.do(ctx, http.MethodDelete, "/api/v1/groups/"+groupID+"/members/"+characterID, nil, nil, &group)
	return group, err
}

// Conversation

func (c *Client) StartConversation(ctx context.Context, groupID string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/groups/"+groupID+"/conversation/start", nil, nil, nil)
}

func (c *Client) StopConversation(ctx context.Context, groupID string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/groups/"+groupID+"/conversation/stop", nil, nil, nil)
}

func (c *Client) GetConversationStatus(ctx context.Context, groupID string) (bool, error) {
	var status struct {
		Active bool `json:"active"`
	}
	err := c.do(ctx, http.MethodGet, "/api/v1/groups/"+groupID+"/conversation/status", nil, nil, &status)
	return status.Active, err
}

// Messages

// GetGroupMessages fetches a page of a group's history. The backend may
// answer with either a bare array or a page envelope with a content field.
func (c *Client) GetGroupMessages(ctx context.Context, groupID string, page, size int) ([]models.Message, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/groups/"+groupID+"/messages", query, nil, &raw); err != nil {
		return nil, err
	}

	var messages []models.Message
	if err := json.Unmarshal(raw, &messages); err == nil {
		return messages, nil
	}
	var paged struct {
		Content []models.Message `json:"content"`
	}
	if err := json.Unmarshal(raw, &paged); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return paged.Content, nil
}

func (c *Client) GetRecentMessages(ctx context.Context, groupID string, limit int) ([]models.Message, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	var messages []models.Message
	err := c.do(ctx, http.MethodGet, "/api/v1/groups/"+groupID+"/messages/recent", query, nil, &messages)
	return messages, err
}

// Characters

func (c *Client) GetCharacters(ctx context.Context) ([]models.Character, error) {
	var characters []models.Character
	err := c.do(ctx, http.MethodGet, "/api/v1/characters", nil, nil, &characters)
	return characters, err
}

func (c *Client) GetCharacter(ctx context.Context, characterID string) (models.Character, error) {
	var character models.Character
	err := c.do(ctx, http.MethodGet, "/api/v1/characters/"+characterID, nil, nil, &character)
	return character, err
}

func (c *Client) CreateCharacter(ctx context.Context, req models.CreateCharacterRequest) (models.Character, error) {
	var character models.Character
	err := c.do(ctx, http.MethodPost, "/api/v1/characters", nil, req, &character)
	return character, err
}

func (c *Client) UpdateCharacter(ctx context.Context, characterID string, req models.CreateCharacterRequest) (models.Character, error) {
	var character models.Character
	err := c.do(ctx, http.MethodPut, "/api/v1/characters/"+characterID, nil, req, &character)
	return character, err
}

func (c *Client) DeleteCharacter(ctx context.Context, characterID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/characters/"+characterID, nil, nil, nil)
}

func (c *Client) CreatePredefinedCharacters(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/characters/predefined", nil, nil, nil)
}

// Health

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}
