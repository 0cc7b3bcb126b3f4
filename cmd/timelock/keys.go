package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/internal/crypto/ed25519"
)

type keyFile struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

// generateKeyFile writes a new key pair to path. Existing files are never
// overwritten.
func generateKeyFile(path string) (crypto.PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return crypto.PublicKey{}, err
	}
	key, err := crypto.PublicKeyFromBytes(pub)
	if err != nil {
		return crypto.PublicKey{}, err
	}

	data, err := json.MarshalIndent(keyFile{
		PublicKey:  key.String(),
		PrivateKey: hex.EncodeToString(priv),
	}, "", "\t")
	if err != nil {
		return crypto.PublicKey{}, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return crypto.PublicKey{}, fmt.Errorf("create key file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return crypto.PublicKey{}, fmt.Errorf("write key file: %w", err)
	}
	return key, nil
}

func loadKeyFile(path string) (crypto.PublicKey, ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return crypto.PublicKey{}, nil, fmt.Errorf("error reading file: %w", err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return crypto.PublicKey{}, nil, fmt.Errorf("error unmarshaling JSON: %w", err)
	}

	pub, err := crypto.ParsePublicKey(kf.PublicKey)
	if err != nil {
		return crypto.PublicKey{}, nil, err
	}
	raw, err := hex.DecodeString(kf.PrivateKey)
	if err != nil {
		return crypto.PublicKey{}, nil, fmt.Errorf("private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return crypto.PublicKey{}, nil, fmt.Errorf("private key: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}

	priv := ed25519.PrivateKey(raw)
	if !pub.Ed25519().Equal(priv.Public()) {
		return crypto.PublicKey{}, nil, fmt.Errorf("%s: public and private key do not match", path)
	}
	return pub, priv, nil
}
