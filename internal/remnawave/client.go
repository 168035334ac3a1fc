// Package remnawave is the HTTP client for the subscription-provisioning
// panel: reading a user's current expiry and squads, and patching them after
// a purchase.
package remnawave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/config"
)

// ErrUserNotFound is returned when the panel has no user for the given uuid.
var ErrUserNotFound = errors.New("panel user not found")

type Client struct {
	baseURL string
	token   string
	cookies map[string]string
	httpc   *http.Client
	log     *zap.Logger
}

func NewClient(cfg config.PanelConfig, log *zap.Logger) *Client {
	cookies := map[string]string{}
	if cfg.CookiesJSON != "" {
		if err := json.Unmarshal([]byte(cfg.CookiesJSON), &cookies); err != nil {
			log.Warn("invalid REMNAWAVE_COOKIES, ignoring", zap.Error(err))
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: cfg.APIURL,
		token:   cfg.AdminToken,
		cookies: cookies,
		httpc:   &http.Client{Timeout: timeout},
		log:     log,
	}
}

// PanelUser is the slice of panel state the billing flow needs.
type PanelUser struct {
	UUID         string     `json:"uuid"`
	ExpireAt     *time.Time `json:"expireAt"`
	ActiveSquads []string   `json:"activeInternalSquads"`
}

// UpdateUserRequest patches expiry, squads and the optional traffic cap.
type UpdateUserRequest struct {
	UUID                 string    `json:"uuid"`
	ExpireAt             time.Time `json:"expireAt"`
	ActiveInternalSquads []string  `json:"activeInternalSquads"`
	TrafficLimitBytes    *int64    `json:"trafficLimitBytes,omitempty"`
	TrafficLimitStrategy string    `json:"trafficLimitStrategy,omitempty"`
}

func (c *Client) GetUser(ctx context.Context, uuid string) (*PanelUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/users/"+uuid, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("panel get user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("panel get user returned %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Response PanelUser `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("panel get user decode: %w", err)
	}
	return &result.Response, nil
}

func (c *Client) UpdateUser(ctx context.Context, update UpdateUserRequest) error {
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/api/users", bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("panel update user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("panel update user returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}
