package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/till/pkg/jwtx"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

func TestLoadSigningKeyHS256(t *testing.T) {
	cfg := validConfig()
	cfg.JWTKeyID = "k1"

	key, err := LoadSigningKey(cfg, slogx.Discard())
	require.NoError(t, err)
	require.Equal(t, jwtx.AlgHS256, key.Alg())
}

func TestLoadSigningKeyEdDSAFile(t *testing.T) {
	cfg := validConfig()
	cfg.JWTAlgorithm = jwtx.AlgEdDSA
	cfg.JWTKeyID = "k1"
	cfg.JWTKeyFile = filepath.Join(t.TempDir(), "keys", "signing.pem")

	first, err := LoadSigningKey(cfg, slogx.Discard())
	require.NoError(t, err)
	require.Equal(t, jwtx.AlgEdDSA, first.Alg())

	info, err := os.Stat(cfg.JWTKeyFile)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A token signed before the restart still verifies after it.
	issued, err := jwtx.NewCodec(first).Issue("user-1", jwtx.TTLFromMinutes(5), nil)
	require.NoError(t, err)

	second, err := LoadSigningKey(cfg, slogx.Discard())
	require.NoError(t, err)
	claims, err := jwtx.NewCodec(second).Decode(issued.Raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
}

func TestLoadSigningKeyEdDSAEphemeral(t *testing.T) {
	cfg := validConfig()
	cfg.JWTAlgorithm = jwtx.AlgEdDSA

	key, err := LoadSigningKey(cfg, slogx.Discard())
	require.NoError(t, err)
	require.NoError(t, key.Validate())
}
