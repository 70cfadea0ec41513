package storage

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
)

// Sealer encrypts tokens at rest with an age X25519 key pair.
type Sealer struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// NewSealer parses an AGE-SECRET-KEY identity. An empty key generates an
// ephemeral one, so stored sessions do not survive a restart.
func NewSealer(key string) (*Sealer, error) {
	var (
		id  *age.X25519Identity
		err error
	)
	if key = strings.TrimSpace(key); key == "" {
		id, err = age.GenerateX25519Identity()
	} else {
		id, err = age.ParseX25519Identity(key)
	}
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	return &Sealer{identity: id, recipient: id.Recipient()}, nil
}

func (s *Sealer) Seal(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := age.Encrypt(&buf, s.recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Sealer) Open(data []byte) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(data), s.identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
