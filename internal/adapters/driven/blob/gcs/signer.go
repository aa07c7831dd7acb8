package gcs

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
)

// Signed URL constants for the V4 scheme.
const (
	signingHost      = "storage.googleapis.com"
	signingAlgorithm = "GOOG4-RSA-SHA256"
	maxSignedTTL     = 7 * 24 * time.Hour
)

// urlSigner produces V4 signed GET URLs with a service account key.
type urlSigner struct {
	email string
	key   *rsa.PrivateKey
	now   func() time.Time
}

// newURLSigner reads a service account key file. Other credential types
// cannot sign and yield an error.
func newURLSigner(credentialsJSON []byte) (*urlSigner, error) {
	cfg, err := google.JWTConfigFromJSON(credentialsJSON)
	if err != nil {
		return nil, fmt.Errorf("reading service account key: %w", err)
	}
	key, err := parsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	return &urlSigner{email: cfg.Email, key: key, now: time.Now}, nil
}

func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("private key is not PEM encoded")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("private key is not RSA")
		}
		return rsaKey, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return key, nil
}

// Sign returns a URL granting GET on bucket/object for ttl. The ttl is
// clamped to the one week the scheme allows.
func (s *urlSigner) Sign(bucket, object string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}
	if ttl > maxSignedTTL {
		ttl = maxSignedTTL
	}

	now := s.now().UTC()
	stamp := now.Format("20060102T150405Z")
	scope := now.Format("20060102") + "/auto/storage/goog4_request"
	path := "/" + bucket + "/" + escapeV4(object, true)

	params := map[string]string{
		"X-Goog-Algorithm":     signingAlgorithm,
		"X-Goog-Credential":    s.email + "/" + scope,
		"X-Goog-Date":          stamp,
		"X-Goog-Expires":       strconv.Itoa(int(ttl / time.Second)),
		"X-Goog-SignedHeaders": "host",
	}
	query := canonicalQuery(params)

	canonical := strings.Join([]string{
		"GET",
		path,
		query,
		"host:" + signingHost + "\n",
		"host",
		"UNSIGNED-PAYLOAD",
	}, "\n")
	digest := sha256.Sum256([]byte(canonical))

	toSign := strings.Join([]string{signingAlgorithm, stamp, scope, hex.EncodeToString(digest[:])}, "\n")
	hashed := sha256.Sum256([]byte(toSign))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, hashed[:])
	if err != nil {
		return "", fmt.Errorf("signing: %w", err)
	}

	return "https://" + signingHost + path + "?" + query + "&X-Goog-Signature=" + hex.EncodeToString(sig), nil
}

func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = escapeV4(k, false) + "=" + escapeV4(params[k], false)
	}
	return strings.Join(parts, "&")
}

// escapeV4 percent-encodes everything except unreserved characters, and
// '/' when keepSlash is set.
func escapeV4(s string, keepSlash bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		case c == '/' && keepSlash:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
