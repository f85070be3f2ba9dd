package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ManifestRef identifies the (event, driver) pair a share token grants access to.
type ManifestRef struct {
	EventID  string
	DriverID string
}

// SignedURLSigner creates and validates signed, expiring manifest share tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a signed token for the manifest reference.
func (s *SignedURLSigner) Generate(ref ManifestRef) (string, time.Time, error) {
	if ref.EventID == "" || ref.DriverID == "" {
		return "", time.Time{}, fmt.Errorf("event and driver required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	event := base64.RawURLEncoding.EncodeToString([]byte(ref.EventID))
	driver := base64.RawURLEncoding.EncodeToString([]byte(ref.DriverID))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{event, driver, ts, s.sign(event, driver, ts)}, ".")
	return token, time.Unix(expiresAt.Unix(), 0), nil
}

// Parse validates a token and returns the embedded reference.
func (s *SignedURLSigner) Parse(token string) (ManifestRef, time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return ManifestRef{}, time.Time{}, fmt.Errorf("invalid token format")
	}
	event, driver, ts, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(event, driver, ts)), []byte(signature)) {
		return ManifestRef{}, time.Time{}, fmt.Errorf("invalid token signature")
	}

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ManifestRef{}, time.Time{}, fmt.Errorf("invalid timestamp")
	}
	expiresAt := time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return ManifestRef{}, time.Time{}, fmt.Errorf("token expired")
	}

	rawEvent, err := base64.RawURLEncoding.DecodeString(event)
	if err != nil {
		return ManifestRef{}, time.Time{}, fmt.Errorf("decode event: %w", err)
	}
	rawDriver, err := base64.RawURLEncoding.DecodeString(driver)
	if err != nil {
		return ManifestRef{}, time.Time{}, fmt.Errorf("decode driver: %w", err)
	}
	return ManifestRef{EventID: string(rawEvent), DriverID: string(rawDriver)}, expiresAt, nil
}

func (s *SignedURLSigner) sign(event, driver, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(event + "|" + driver + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
