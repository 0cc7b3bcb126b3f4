package host

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/anilyagiz/dDef/internal/crypto"
	"github.com/anilyagiz/dDef/internal/crypto/ed25519"
	"github.com/anilyagiz/dDef/pkg/serialization/codec/borsh"
)

// AccountMeta names an account a transaction touches and whether the
// program may write it.
type AccountMeta struct {
	Key        crypto.PublicKey
	IsWritable bool
}

// Transaction is a signed request to run the program once.
type Transaction struct {
	ID        uuid.UUID
	Signer    crypto.PublicKey
	Accounts  []AccountMeta
	Data      []byte
	Signature [crypto.SignatureSize]byte
}

type message struct {
	ID       uuid.UUID
	Signer   crypto.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewTransaction returns an unsigned transaction with a fresh ID.
func NewTransaction(signer crypto.PublicKey, accounts []AccountMeta, data []byte) *Transaction {
	return &Transaction{
		ID:       uuid.New(),
		Signer:   signer,
		Accounts: accounts,
		Data:     data,
	}
}

// Message is the digest the signer signs.
func (tx *Transaction) Message() (crypto.Hash, error) {
	b, err := borsh.Marshal(message{
		ID:       tx.ID,
		Signer:   tx.Signer,
		Accounts: tx.Accounts,
		Data:     tx.Data,
	})
	if err != nil {
		return crypto.Hash{}, fmt.Errorf("encode message: %w", err)
	}
	return crypto.HashData(b), nil
}

// Sign signs the transaction with the signer's private key.
func (tx *Transaction) Sign(key ed25519.PrivateKey) error {
	if len(key) != ed25519.PrivateKeySize {
		return fmt.Errorf("%w: malformed private key", ErrInvalidSignature)
	}
	if !tx.Signer.Ed25519().Equal(key.Public()) {
		return fmt.Errorf("%w: key does not belong to signer %s", ErrInvalidSignature, tx.Signer)
	}

	msg, err := tx.Message()
	if err != nil {
		return err
	}
	copy(tx.Signature[:], ed25519.Sign(key, msg[:]))
	return nil
}

// Verify checks the signature against the signer.
func (tx *Transaction) Verify() error {
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	if !ed25519.Verify(tx.Signer.Ed25519(), msg[:], tx.Signature[:]) {
		return fmt.Errorf("%w: transaction %s", ErrInvalidSignature, tx.ID)
	}
	return nil
}
