package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aussiebroadwan/till/pkg/cryptox"
	"github.com/aussiebroadwan/till/pkg/jwtx"
)

// LoadSigningKey builds the token signing key for the configured algorithm.
//
//   - HS256 signs with TILL_JWT_SECRET.
//   - EdDSA reads a PKCS8 PEM from TILL_JWT_KEY_FILE, creating the file on
//     first start. Without a file the key is generated in memory and every
//     token dies with the process.
func LoadSigningKey(cfg Config, logger *slog.Logger) (jwtx.SigningKey, error) {
	switch cfg.JWTAlgorithm {
	case jwtx.AlgHS256:
		key, err := jwtx.NewSigningKey(jwtx.AlgHS256, cfg.JWTKeyID, []byte(cfg.JWTSecret), nil)
		if err != nil {
			return nil, fmt.Errorf("load HS256 key: %w", err)
		}
		logger.Info("signing key loaded", "algorithm", jwtx.AlgHS256, "kid", cfg.JWTKeyID)
		return key, nil

	case jwtx.AlgEdDSA:
		if cfg.JWTKeyFile == "" {
			key, err := jwtx.GenerateEdDSAKey(cfg.JWTKeyID)
			if err != nil {
				return nil, fmt.Errorf("generate EdDSA key: %w", err)
			}
			logger.Warn("generated ephemeral EdDSA key, tokens will not survive a restart", "kid", cfg.JWTKeyID)
			return key, nil
		}

		pemKey, err := loadOrGenerateKeyFile(cfg.JWTKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load EdDSA key file: %w", err)
		}
		key, err := jwtx.NewSigningKey(jwtx.AlgEdDSA, cfg.JWTKeyID, nil, pemKey)
		if err != nil {
			return nil, fmt.Errorf("load EdDSA key: %w", err)
		}
		logger.Info("signing key loaded", "algorithm", jwtx.AlgEdDSA, "kid", cfg.JWTKeyID, "file", cfg.JWTKeyFile)
		return key, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, cfg.JWTAlgorithm)
	}
}

func loadOrGenerateKeyFile(file string) ([]byte, error) {
	file = filepath.Clean(file)

	existing, err := os.ReadFile(file)
	if err == nil {
		return existing, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return nil, err
	}
	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(file, pemKey, 0600); err != nil {
		return nil, err
	}
	return pemKey, nil
}
