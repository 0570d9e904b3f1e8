package encryption

import (
	"fmt"

	"flexipdf/internal/config"
)

// PassphraseFunc supplies the passphrase when a sealer needs one.
type PassphraseFunc func() (string, error)

// NewSealerFromConfig creates a Sealer based on the configuration type.
// passphrase is only called for types that need one.
func NewSealerFromConfig(cfg config.EncryptionConfig, passphrase PassphraseFunc) (Sealer, error) {
	switch cfg.Type {
	case "age":
		if passphrase == nil {
			return nil, fmt.Errorf("age encryption requires a passphrase")
		}
		p, err := passphrase()
		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		return NewPassphraseSealer(p, cfg.WorkFactor)
	case "none", "":
		return PlainSealer{}, nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
