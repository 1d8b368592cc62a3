package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("sub-1", "sub-1/malumotnoma.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	refID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "sub-1", refID)
	require.Equal(t, "sub-1/malumotnoma.pdf", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("sub-1", "sub-1/rozilik.pdf")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	refID, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "sub-1", refID)
	require.Equal(t, "sub-1/rozilik.pdf", path)
}

func TestSignedURLSignerTamperedToken(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("sub-1", "sub-1/malumotnoma.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse("sub-2"+token[5:], false)
	require.Error(t, err)
}
