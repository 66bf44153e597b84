// Package httpclient talks to the favorites HTTP API.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/ports/out/favoritestore"
)

const defaultTimeout = 10 * time.Second

type Options struct {
	BaseURL string
	// Token is sent as a bearer token. When empty the caller's user id is sent
	// as X-Debug-Subject instead, which only a dev-auth server accepts.
	Token string
	// Subject is the X-Debug-Subject used when a call has no user of its own.
	Subject    string
	HTTPClient *http.Client
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	base    *url.URL
	token   string
	subject string
	hc      *http.Client
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("httpclient: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("httpclient: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("httpclient: base url must be http(s), got %q", raw)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		base:    base,
		token:   strings.TrimSpace(opts.Token),
		subject: strings.TrimSpace(opts.Subject),
		hc:      hc,
	}, nil
}

// Do sends one request and decodes a JSON body into out when out is non-nil.
// A 401 is reported as favoritestore.ErrSessionExpired; other failures are *APIError
// or transport errors.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, user domain.UserID, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawPath = c.base.Path + escapedPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	switch {
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	case user != "":
		req.Header.Set("X-Debug-Subject", string(user))
	case c.subject != "":
		req.Header.Set("X-Debug-Subject", c.subject)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", favoritestore.ErrSessionExpired, apiErr.Error())
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// KeyPath is the resource path of one favorite.
func KeyPath(k domain.FavoriteKey) string {
	return "/v1/favorites/" + string(k.Type) + "/" + k.ID
}

func escapedPath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func decodeAPIError(resp *http.Response) *APIError {
	out := &APIError{Status: resp.StatusCode}
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(body, &env); err == nil {
		out.Code = env.Error.Code
		out.Message = env.Error.Message
	}
	return out
}
