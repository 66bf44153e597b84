package jwtverifier

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/airportdex/favorite-sync/internal/domain"
	"github.com/airportdex/favorite-sync/internal/platform/clock"
	"github.com/airportdex/favorite-sync/internal/platform/config"
	clockport "github.com/airportdex/favorite-sync/internal/ports/out/clock"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenExpired is a well-formed, correctly signed token past its exp.
	// It matches ErrUnauthorized under errors.Is.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrUnauthorized)
)

// Verifier checks RS256 bearer tokens against a JWKS endpoint.
type Verifier struct {
	cfg    config.JWTConfig
	client *http.Client
	clock  clockport.Clock

	refreshes singleflight.Group

	mu          sync.Mutex
	keysByKID   map[string]*rsa.PublicKey
	lastRefresh time.Time
}

func New(cfg config.JWTConfig) *Verifier {
	return NewWithOptions(cfg, nil, nil)
}

func NewWithOptions(cfg config.JWTConfig, httpClient *http.Client, clk clockport.Clock) *Verifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Verifier{
		cfg:       cfg,
		client:    httpClient,
		clock:     clk,
		keysByKID: map[string]*rsa.PublicKey{},
	}
}

type tokenHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

type tokenClaims struct {
	Iss string          `json:"iss"`
	Sub string          `json:"sub"`
	Aud json.RawMessage `json:"aud"`
	Exp *int64          `json:"exp"`
	Nbf *int64          `json:"nbf"`
}

// Verify checks the token and returns its subject as the user id.
// Any failure is ErrUnauthorized; an expired token is ErrTokenExpired.
func (v *Verifier) Verify(ctx context.Context, token string) (domain.UserID, error) {
	h, claims, signed, sig, err := splitToken(token)
	if err != nil || h.Alg != "RS256" || h.Kid == "" {
		return "", ErrUnauthorized
	}
	if err := v.ensureKey(ctx, h.Kid); err != nil {
		return "", ErrUnauthorized
	}
	pub := v.key(h.Kid)
	if pub == nil {
		return "", ErrUnauthorized
	}
	digest := sha256.Sum256([]byte(signed))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return "", ErrUnauthorized
	}
	if err := v.checkClaims(claims); err != nil {
		return "", err
	}
	if claims.Sub == "" {
		return "", ErrUnauthorized
	}
	return domain.UserID(claims.Sub), nil
}

func (v *Verifier) checkClaims(c tokenClaims) error {
	now := v.clock.Now()
	skew := v.cfg.ClockSkew

	if c.Iss != v.cfg.Issuer || !audienceContains(c.Aud, v.cfg.Audience) || c.Exp == nil {
		return ErrUnauthorized
	}
	if c.Nbf != nil && now.Before(time.Unix(*c.Nbf, 0).Add(-skew)) {
		return ErrUnauthorized
	}
	if now.After(time.Unix(*c.Exp, 0).Add(skew)) {
		return ErrTokenExpired
	}
	return nil
}

func (v *Verifier) key(kid string) *rsa.PublicKey {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.keysByKID[kid]
}

// ensureKey refreshes the key set when the refresh interval has passed, or
// when kid is unknown and the minimum refresh interval allows it. Concurrent
// refreshes share one fetch.
func (v *Verifier) ensureKey(ctx context.Context, kid string) error {
	now := v.clock.Now()

	v.mu.Lock()
	sinceLast := now.Sub(v.lastRefresh)
	neverRefreshed := v.lastRefresh.IsZero()
	periodic := !neverRefreshed && v.cfg.JWKSRefreshInterval > 0 && sinceLast >= v.cfg.JWKSRefreshInterval
	unknown := v.keysByKID[kid] == nil &&
		(neverRefreshed || v.cfg.JWKSMinRefreshInterval <= 0 || sinceLast >= v.cfg.JWKSMinRefreshInterval)
	v.mu.Unlock()

	if !periodic && !unknown {
		return nil
	}

	ch := v.refreshes.DoChan("jwks", func() (any, error) {
		return nil, v.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Verifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("jwks fetch failed: status=%d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	keys, err := decodeKeySet(body)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.keysByKID = keys
	v.lastRefresh = v.clock.Now()
	v.mu.Unlock()
	return nil
}

func splitToken(token string) (tokenHeader, tokenClaims, string, []byte, error) {
	var (
		h tokenHeader
		c tokenClaims
	)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return h, c, "", nil, errors.New("token must have three parts")
	}
	enc := base64.RawURLEncoding
	hb, err := enc.DecodeString(parts[0])
	if err != nil {
		return h, c, "", nil, err
	}
	cb, err := enc.DecodeString(parts[1])
	if err != nil {
		return h, c, "", nil, err
	}
	sig, err := enc.DecodeString(parts[2])
	if err != nil {
		return h, c, "", nil, err
	}
	if err := json.Unmarshal(hb, &h); err != nil {
		return h, c, "", nil, err
	}
	if err := json.Unmarshal(cb, &c); err != nil {
		return h, c, "", nil, err
	}
	return h, c, parts[0] + "." + parts[1], sig, nil
}

// audienceContains accepts aud as a string or an array of strings.
func audienceContains(raw json.RawMessage, want string) bool {
	if len(raw) == 0 {
		return false
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return one == want
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return false
	}
	for _, a := range many {
		if a == want {
			return true
		}
	}
	return false
}

type keySet struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func decodeKeySet(b []byte) (map[string]*rsa.PublicKey, error) {
	var set keySet
	if err := json.Unmarshal(b, &set); err != nil {
		return nil, err
	}
	out := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" || k.N == "" || k.E == "" {
			continue
		}
		n, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, fmt.Errorf("jwk %s: modulus: %w", k.Kid, err)
		}
		e, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, fmt.Errorf("jwk %s: exponent: %w", k.Kid, err)
		}
		exp := new(big.Int).SetBytes(e)
		if !exp.IsInt64() || exp.Int64() <= 0 || exp.Int64() > int64(^uint(0)>>1) {
			return nil, fmt.Errorf("jwk %s: invalid exponent", k.Kid)
		}
		out[k.Kid] = &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp.Int64())}
	}
	if len(out) == 0 {
		return nil, errors.New("no usable jwks keys")
	}
	return out, nil
}
