package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate(ManifestRef{EventID: "12", DriverID: "drv.7"})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	ref, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "12", ref.EventID)
	require.Equal(t, "drv.7", ref.DriverID)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate(ManifestRef{EventID: "1", DriverID: "2"})
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, _, err = signer.Parse(token)
	require.Error(t, err)
}

func TestSignedURLSignerTampered(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate(ManifestRef{EventID: "1", DriverID: "2"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[1] = "Mw"
	_, _, err = signer.Parse(strings.Join(parts, "."))
	require.Error(t, err)

	_, _, err = NewSignedURLSigner("other", time.Hour).Parse(token)
	require.Error(t, err)
}

func TestSignedURLSignerRequiresSecret(t *testing.T) {
	_, _, err := NewSignedURLSigner("", time.Hour).Generate(ManifestRef{EventID: "1", DriverID: "2"})
	require.Error(t, err)
}
