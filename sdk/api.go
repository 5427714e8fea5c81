package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Login exchanges credentials for a bearer token. It never touches the bound
// session: a 401 or 400 here means bad credentials, not an expired session.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := c.send(ctx, http.MethodPost, "/token", form, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusBadRequest:
		return nil, ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, readAPIError(resp)
	}

	var tok Token
	if err := decodeJSON(resp, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}
	return &tok, nil
}

// Status returns the system summary shown on the main page.
func (c *Client) Status(ctx context.Context) (*SystemStatus, error) {
	var st SystemStatus
	if err := c.Call(ctx, http.MethodGet, "/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Health probes GET /status and reports the backend's status string, or
// "reachable" when the backend answered without one (for example a 401
// without a token). Transport failures and 5xx are unhealthy. A 401 here
// does not clear the bound session.
func (c *Client) Health(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, "/status", nil, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "reachable", nil
	case resp.StatusCode >= 500:
		return "", readAPIError(resp)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "reachable", nil
	}
	var st SystemStatus
	if err := decodeJSON(resp, &st); err != nil {
		return "", err
	}
	return st.Status, nil
}

// TopTraffic returns the heaviest source/destination pairs of the last hour.
func (c *Client) TopTraffic(ctx context.Context) ([]TrafficSample, error) {
	var out []TrafficSample
	if err := c.Call(ctx, http.MethodGet, "/traffic/top", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Incidents returns the security events of the last week.
func (c *Client) Incidents(ctx context.Context) ([]Incident, error) {
	var out []Incident
	if err := c.Call(ctx, http.MethodGet, "/incidents", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CloseIncident marks an incident Closed.
func (c *Client) CloseIncident(ctx context.Context, id int64) (*CloseResult, error) {
	var out CloseResult
	if err := c.Call(ctx, http.MethodPost, fmt.Sprintf("/incidents/%d/close", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rules returns the active filtering rules.
func (c *Client) Rules(ctx context.Context) ([]Rule, error) {
	var out []Rule
	if err := c.Call(ctx, http.MethodGet, "/rules", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRule adds a filtering rule and returns it as stored.
func (c *Client) CreateRule(ctx context.Context, r Rule) (*Rule, error) {
	r.ID = 0
	var out Rule
	if err := c.Call(ctx, http.MethodPost, "/rules", r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartCapture runs one capture and analysis batch on the backend.
func (c *Client) StartCapture(ctx context.Context) (*CaptureResult, error) {
	var out CaptureResult
	if err := c.Call(ctx, http.MethodPost, "/capture/start", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func decodeJSON(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response (HTTP %d): %w", resp.StatusCode, err)
	}
	return nil
}
