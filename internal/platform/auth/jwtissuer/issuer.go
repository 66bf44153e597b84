// Package jwtissuer mints RS256 tokens and publishes the matching JWKS.
// It backs the local dev issuer and the test JWKS server; it is not an OIDC provider.
package jwtissuer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"time"
)

type Keypair struct {
	Kid     string
	Private *rsa.PrivateKey
}

func GenerateKeypair(kid string) (Keypair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{Kid: kid, Private: priv}, nil
}

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// KeySetJSON renders the public halves of keys as a JWKS document.
func KeySetJSON(keys ...Keypair) ([]byte, error) {
	enc := base64.RawURLEncoding
	set := struct {
		Keys []jwk `json:"keys"`
	}{Keys: make([]jwk, 0, len(keys))}
	for _, kp := range keys {
		pub := kp.Private.PublicKey
		set.Keys = append(set.Keys, jwk{
			Kty: "RSA",
			Use: "sig",
			Alg: "RS256",
			Kid: kp.Kid,
			N:   enc.EncodeToString(pub.N.Bytes()),
			E:   enc.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	return json.Marshal(set)
}

// Claims are the registered claims the API verifies.
type Claims struct {
	Issuer   string
	Audience any // string or []string
	Subject  string
	IssuedAt time.Time
	TTL      time.Duration
	// NotBefore is relative to IssuedAt; nil omits nbf.
	NotBefore *time.Duration
}

// Mint signs c with kp.
func Mint(kp Keypair, c Claims) (string, error) {
	header := map[string]any{"alg": "RS256", "typ": "JWT", "kid": kp.Kid}
	claims := map[string]any{
		"iss": c.Issuer,
		"aud": c.Audience,
		"sub": c.Subject,
		"iat": c.IssuedAt.Unix(),
		"exp": c.IssuedAt.Add(c.TTL).Unix(),
	}
	if c.NotBefore != nil {
		claims["nbf"] = c.IssuedAt.Add(*c.NotBefore).Unix()
	}

	hb, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	cb, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	enc := base64.RawURLEncoding
	signed := enc.EncodeToString(hb) + "." + enc.EncodeToString(cb)
	digest := sha256.Sum256([]byte(signed))
	sig, err := rsa.SignPKCS1v15(rand.Reader, kp.Private, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return signed + "." + enc.EncodeToString(sig), nil
}
