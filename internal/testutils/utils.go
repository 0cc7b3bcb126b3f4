package testutils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/internal/crypto/ed25519"
)

func RandomPublicKey(t *testing.T) crypto.PublicKey {
	var key crypto.PublicKey
	_, err := rand.Read(key[:])
	require.NoError(t, err)
	return key
}

// RandomSigner returns a fresh ed25519 key pair with the public half as a
// crypto.PublicKey.
func RandomSigner(t *testing.T) (crypto.PublicKey, ed25519.PrivateKey) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := crypto.PublicKeyFromBytes(pub)
	require.NoError(t, err)
	return key, priv
}

// RequireBytesEqual fails with a line diff of the hex dumps of expected and
// actual, which is easier to read than two raw byte slices.
func RequireBytesEqual(t *testing.T, expected, actual []byte) {
	t.Helper()
	if string(expected) == string(actual) {
		return
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(hex.Dump(expected)),
		B:        difflib.SplitLines(hex.Dump(actual)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  2,
	})
	require.NoError(t, err)
	require.Fail(t, "byte slices differ", strings.TrimSpace(diff))
}
