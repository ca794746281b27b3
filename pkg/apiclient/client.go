// Package apiclient is a typed Go client for the maraude coordination API.
// It keeps a persisted session, attaches the bearer token to every call, and
// refreshes an expired token exactly once even under concurrent requests.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired is returned when a request got a 401 and the silent
// refresh failed. The session is cleared before it is returned.
var ErrSessionExpired = errors.New("session expired")

type Client struct {
	baseURL string
	http    *http.Client
	session *Session

	// collapses concurrent refresh attempts into one upstream call
	refreshGroup singleflight.Group
}

type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, store CredentialStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		session: NewSession(store),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the client's session for subscriptions and state checks.
func (c *Client) Session() *Session {
	return c.session
}

// do builds the request from scratch on each attempt so a retry after refresh
// reuses the original body bytes with the new token.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	resp, err := c.send(ctx, method, path, query, payload, c.session.Token())
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !isAuthPath(path) && c.session.LoggedIn() {
		drain(resp)

		token, err := c.refreshToken(ctx)
		if err != nil {
			_ = c.session.Clear()
			return ErrSessionExpired
		}

		resp, err = c.send(ctx, method, path, query, payload, token)
		if err != nil {
			return err
		}
	}
	defer drain(resp)

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.http.Do(req)
}

// refreshToken performs one refresh call no matter how many requests hit a
// 401 at the same time. Followers wait for the leader's result and reuse it.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		body, err := json.Marshal(map[string]string{"refreshToken": c.session.RefreshToken()})
		if err != nil {
			return nil, err
		}
		resp, err := c.send(ctx, http.MethodPost, "/api/v1/auth/refresh", nil, body, "")
		if err != nil {
			return nil, err
		}
		defer drain(resp)

		if resp.StatusCode >= 400 {
			return nil, decodeError(resp)
		}
		var tr TokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return nil, err
		}
		if err := c.session.SetTokens(tr.AccessToken, tr.RefreshToken); err != nil {
			return nil, err
		}
		return tr.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// isAuthPath reports whether a 401 from this path must not trigger a refresh.
func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/api/v1/auth/")
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Message = body.Message
		apiErr.Details = body.Errors
	}
	return apiErr
}

// listEnvelope is the standard list response shape.
type listEnvelope[T any] struct {
	Success bool `json:"success"`
	Data    []T  `json:"data"`
	Count   int  `json:"count"`
}

type itemEnvelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// --- auth ---

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceInfo string `json:"deviceInfo,omitempty"`
}

// Login authenticates and stores the resulting session.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*User, error) {
	var tr TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, req, &tr); err != nil {
		return nil, err
	}
	if err := c.session.SetCredentials(tr.AccessToken, tr.RefreshToken, tr.User); err != nil {
		return nil, err
	}
	return tr.User, nil
}

type RegisterRequest struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	AssociationID string `json:"associationId"`
	Phone         string `json:"phone,omitempty"`
	DeviceInfo    string `json:"deviceInfo,omitempty"`
}

// Register creates an account and stores the resulting session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var tr TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", nil, req, &tr); err != nil {
		return nil, err
	}
	if err := c.session.SetCredentials(tr.AccessToken, tr.RefreshToken, tr.User); err != nil {
		return nil, err
	}
	return tr.User, nil
}

// Logout revokes the server session and clears local state. Local state is
// cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	body := map[string]string{"refreshToken": c.session.RefreshToken()}
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, body, nil)
	if clearErr := c.session.Clear(); clearErr != nil {
		return clearErr
	}
	return err
}

// --- maraudes ---

func (c *Client) ListMaraudes(ctx context.Context, query url.Values) ([]*Maraude, error) {
	var env listEnvelope[*Maraude]
	if err := c.do(ctx, http.MethodGet, "/api/v1/maraudes", query, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) TodayMaraudes(ctx context.Context) ([]*Maraude, error) {
	var env listEnvelope[*Maraude]
	if err := c.do(ctx, http.MethodGet, "/api/v1/maraudes/today/active", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) GetMaraude(ctx context.Context, id string) (*Maraude, error) {
	var env itemEnvelope[*Maraude]
	if err := c.do(ctx, http.MethodGet, "/api/v1/maraudes/"+id, nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) CreateMaraude(ctx context.Context, body any) (*Maraude, error) {
	var env itemEnvelope[*Maraude]
	if err := c.do(ctx, http.MethodPost, "/api/v1/maraudes", nil, body, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) UpdateMaraudeStatus(ctx context.Context, id, status string) (*Maraude, error) {
	var env itemEnvelope[*Maraude]
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, "/api/v1/maraudes/"+id+"/status", nil, body, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// --- merchants ---

func (c *Client) ListMerchants(ctx context.Context, query url.Values) ([]*Merchant, error) {
	var env listEnvelope[*Merchant]
	if err := c.do(ctx, http.MethodGet, "/api/v1/merchants", query, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) NearbyMerchants(ctx context.Context, lat, lon, radiusKm float64) ([]*Merchant, error) {
	q := url.Values{}
	q.Set("radius", fmt.Sprintf("%f", radiusKm))

	path := fmt.Sprintf("/api/v1/merchants/nearby/%f/%f", lat, lon)
	var env listEnvelope[*Merchant]
	if err := c.do(ctx, http.MethodGet, path, q, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// --- associations ---

func (c *Client) ListAssociations(ctx context.Context, query url.Values) ([]*Association, error) {
	var env listEnvelope[*Association]
	if err := c.do(ctx, http.MethodGet, "/api/v1/associations", query, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) AssociationStats(ctx context.Context, id string) (*AssociationStats, error) {
	var env itemEnvelope[*AssociationStats]
	if err := c.do(ctx, http.MethodGet, "/api/v1/associations/"+id+"/stats", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// --- reports ---

func (c *Client) ListReports(ctx context.Context, query url.Values) ([]*Report, error) {
	var env listEnvelope[*Report]
	if err := c.do(ctx, http.MethodGet, "/api/v1/reports", query, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) CreateReport(ctx context.Context, body any) (*Report, error) {
	var env itemEnvelope[*Report]
	if err := c.do(ctx, http.MethodPost, "/api/v1/reports", nil, body, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) SubmitReport(ctx context.Context, id string) (*Report, error) {
	var env itemEnvelope[*Report]
	if err := c.do(ctx, http.MethodPatch, "/api/v1/reports/"+id+"/submit", nil, map[string]string{}, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

type SendReportEmailRequest struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// SendReportEmail mails a report summary to the given recipients and returns
// the server's confirmation message.
func (c *Client) SendReportEmail(ctx context.Context, id string, req SendReportEmailRequest) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/reports/"+id+"/send-email", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// CheckDuplicateReport asks whether a report already exists for the given
// action and date (YYYY-MM-DD).
func (c *Client) CheckDuplicateReport(ctx context.Context, actionID, date string) (bool, error) {
	q := url.Values{}
	q.Set("maraudeActionId", actionID)
	q.Set("date", date)

	var resp struct {
		Success   bool `json:"success"`
		Duplicate bool `json:"duplicate"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/reports/check-duplicate", q, nil, &resp); err != nil {
		return false, err
	}
	return resp.Duplicate, nil
}

// --- map ---

func (c *Client) MapFeatures(ctx context.Context, query url.Values) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := c.do(ctx, http.MethodGet, "/api/v1/map/features", query, nil, &fc); err != nil {
		return nil, err
	}
	return &fc, nil
}
