package encryption

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"
)

// ageHeader starts every age file.
var ageHeader = []byte("age-encryption.org/")

// Sealer protects snapshot bytes at rest.
type Sealer interface {
	// Seal reads plaintext from r and writes the protected form to w.
	Seal(r io.Reader, w io.Writer) error
	// Open reverses Seal.
	Open(r io.Reader, w io.Writer) error
}

// PassphraseSealer implements Sealer with age's scrypt passphrase encryption.
type PassphraseSealer struct {
	passphrase string
	workFactor int
}

var _ Sealer = (*PassphraseSealer)(nil)

// NewPassphraseSealer creates a PassphraseSealer. A workFactor of 0 uses
// age's default; lower values are only suitable for tests.
func NewPassphraseSealer(passphrase string, workFactor int) (*PassphraseSealer, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase must not be empty")
	}
	return &PassphraseSealer{passphrase: passphrase, workFactor: workFactor}, nil
}

// Seal encrypts everything read from r to w.
func (s *PassphraseSealer) Seal(r io.Reader, w io.Writer) error {
	recipient, err := age.NewScryptRecipient(s.passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if s.workFactor > 0 {
		recipient.SetWorkFactor(s.workFactor)
	}

	encWriter, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}
	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return nil
}

// Open decrypts age ciphertext read from r to w.
func (s *PassphraseSealer) Open(r io.Reader, w io.Writer) error {
	identity, err := age.NewScryptIdentity(s.passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt identity: %w", err)
	}

	decReader, err := age.Decrypt(r, identity)
	if err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}
	if _, err := io.Copy(w, decReader); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}
	return nil
}

// PlainSealer passes data through unchanged. Opening sealed data fails.
type PlainSealer struct{}

var _ Sealer = PlainSealer{}

func (PlainSealer) Seal(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (PlainSealer) Open(r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	sealed, err := IsSealed(br)
	if err != nil {
		return err
	}
	if sealed {
		return fmt.Errorf("data is encrypted; a passphrase is required")
	}
	if _, err := io.Copy(w, br); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

// IsSealed reports whether the data buffered in r starts with an age header.
// Nothing is consumed from r.
func IsSealed(r *bufio.Reader) (bool, error) {
	head, err := r.Peek(len(ageHeader))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return false, fmt.Errorf("reading header: %w", err)
	}
	return bytes.HasPrefix(head, ageHeader), nil
}
