package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/ssop/pkg/cryptox"
	"github.com/aussiebroadwan/ssop/pkg/jwtx"
)

// SigningKeyID is the kid advertised for the ID token signing key.
const SigningKeyID = "ssop-ed25519"

// InitSigningKey loads the Ed25519 signing key from cfg.SigningKeyFile.
// Without a key file a key is generated in memory, so ID tokens issued by a
// previous process stop verifying after a restart.
func InitSigningKey(cfg Config, logger *slog.Logger) (jwtx.Signer, error) {
	var (
		pemKey []byte
		err    error
	)

	if cfg.SigningKeyFile != "" {
		pemKey, err = cryptox.ReadEd25519KeyFile(cfg.SigningKeyFile)
		if err != nil {
			return nil, err
		}
		logger.Info("signing key loaded", "path", cfg.SigningKeyFile, "kid", SigningKeyID)
	} else {
		pemKey, err = cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, err
		}
		logger.Warn("generated ephemeral signing key; ID tokens will not survive a restart", "kid", SigningKeyID)
	}

	signer, err := jwtx.NewSignerEdDSA(SigningKeyID, pemKey)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}
	return signer, nil
}

// InitPepper installs the argon2id pepper when a pepper file is configured.
func InitPepper(cfg Config, logger *slog.Logger) error {
	if cfg.PepperFile == "" {
		return nil
	}

	p, err := cryptox.LoadPepperFile(cfg.PepperFile, false)
	if err != nil {
		return err
	}
	cryptox.SetPepper(p)
	logger.Info("password pepper loaded", "path", cfg.PepperFile)
	return nil
}
