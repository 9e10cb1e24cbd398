package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/till/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "till-test"

// clock is a settable time source for the codec.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newHS256Codec(t *testing.T, clk *clock) *jwtx.Codec {
	t.Helper()

	key, err := jwtx.NewHS256Key("", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	return jwtx.NewCodec(key, jwtx.WithIssuer(exampleIssuer), jwtx.WithClock(clk.Now))
}

func TestCodecRoundTrip(t *testing.T) {
	clk := &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}

	keys := map[string]func(t *testing.T) jwtx.SigningKey{
		"HS256": func(t *testing.T) jwtx.SigningKey {
			k, err := jwtx.NewHS256Key("hs", []byte("secret-secret-secret-secret-1234"))
			require.NoError(t, err)
			return k
		},
		"EdDSA": func(t *testing.T) jwtx.SigningKey {
			k, err := jwtx.GenerateEdDSAKey("ed")
			require.NoError(t, err)
			return k
		},
	}

	for name, mk := range keys {
		t.Run(name, func(t *testing.T) {
			codec := jwtx.NewCodec(mk(t), jwtx.WithIssuer(exampleIssuer), jwtx.WithClock(clk.Now))
			require.Equal(t, name, codec.Alg())
			require.True(t, codec.Ready())

			custom := map[string]any{"outlet": "north"}
			tok, err := codec.Issue("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", jwtx.TTLFromMinutes(60), custom)
			require.NoError(t, err)
			require.Len(t, strings.Split(tok.Raw, "."), 3)
			require.Equal(t, 3600, tok.ExpiresIn())

			claims, err := codec.Decode(tok.Raw)
			require.NoError(t, err)
			require.Equal(t, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", claims.Subject)
			require.Equal(t, custom, claims.Ctx)
			require.Equal(t, tok.Claims.ID, claims.ID)
			require.Equal(t, clk.t, claims.IssuedAt.Time.UTC())
			require.Equal(t, clk.t.Add(time.Hour), claims.Expiry().UTC())
		})
	}
}

func TestCodecExpiry(t *testing.T) {
	clk := &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	codec := newHS256Codec(t, clk)

	t.Run("zero ttl is expired one second later", func(t *testing.T) {
		tok, err := codec.Issue("user-1", 0, nil)
		require.NoError(t, err)

		clk.Advance(time.Second)
		_, err = codec.Decode(tok.Raw)
		require.ErrorIs(t, err, jwtx.ErrExpired)
		require.NotErrorIs(t, err, jwtx.ErrInvalid)
	})

	t.Run("waiting past ttl expires", func(t *testing.T) {
		tok, err := codec.Issue("user-1", time.Minute, nil)
		require.NoError(t, err)

		clk.Advance(59 * time.Second)
		_, err = codec.Decode(tok.Raw)
		require.NoError(t, err)

		clk.Advance(2 * time.Second)
		_, err = codec.Decode(tok.Raw)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})
}

func TestCodecRejects(t *testing.T) {
	clk := &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	codec := newHS256Codec(t, clk)

	tok, err := codec.Issue("user-1", time.Minute, nil)
	require.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		_, err := codec.Decode("")
		require.ErrorIs(t, err, jwtx.ErrInvalid)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := codec.Decode("not-a-jwt")
		require.ErrorIs(t, err, jwtx.ErrInvalid)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("tampered signature", func(t *testing.T) {
		parts := strings.Split(tok.Raw, ".")
		parts[2] = strings.Repeat("A", len(parts[2]))
		_, err := codec.Decode(strings.Join(parts, "."))
		require.ErrorIs(t, err, jwtx.ErrInvalid)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := jwtx.NewHS256Key("", []byte("another-secret-another-secret-12"))
		require.NoError(t, err)
		foreign, err := jwtx.NewCodec(other, jwtx.WithIssuer(exampleIssuer), jwtx.WithClock(clk.Now)).
			Issue("user-1", time.Minute, nil)
		require.NoError(t, err)

		_, err = codec.Decode(foreign.Raw)
		require.ErrorIs(t, err, jwtx.ErrInvalid)
	})

	t.Run("forged and expired reports invalid", func(t *testing.T) {
		other, err := jwtx.NewHS256Key("", []byte("another-secret-another-secret-12"))
		require.NoError(t, err)
		forged, err := jwtx.NewCodec(other, jwtx.WithIssuer(exampleIssuer), jwtx.WithClock(clk.Now)).
			Issue("user-1", 0, nil)
		require.NoError(t, err)

		// Decode an hour later with a fresh clock so the other subtests keep theirs
		later := &clock{t: clk.t.Add(time.Hour)}
		_, err = newHS256Codec(t, later).Decode(forged.Raw)
		require.ErrorIs(t, err, jwtx.ErrInvalid)
		require.NotErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		ed, err := jwtx.GenerateEdDSAKey("ed")
		require.NoError(t, err)
		edTok, err := jwtx.NewCodec(ed, jwtx.WithIssuer(exampleIssuer), jwtx.WithClock(clk.Now)).
			Issue("user-1", time.Minute, nil)
		require.NoError(t, err)

		_, err = codec.Decode(edTok.Raw)
		require.ErrorIs(t, err, jwtx.ErrInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		key, err := jwtx.NewHS256Key("", []byte("0123456789abcdef0123456789abcdef"))
		require.NoError(t, err)
		other, err := jwtx.NewCodec(key, jwtx.WithIssuer("someone-else"), jwtx.WithClock(clk.Now)).
			Issue("user-1", time.Minute, nil)
		require.NoError(t, err)

		_, err = codec.Decode(other.Raw)
		require.ErrorIs(t, err, jwtx.ErrInvalid)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})
}

func TestCodecSigningKeyUnavailable(t *testing.T) {
	codec := jwtx.NewCodec(nil)
	require.False(t, codec.Ready())

	_, err := codec.Issue("user-1", time.Minute, nil)
	require.ErrorIs(t, err, jwtx.ErrSigning)

	var signErr *jwtx.SigningError
	require.ErrorAs(t, err, &signErr)
}

func TestNewSigningKey(t *testing.T) {
	t.Run("HS256 requires secret", func(t *testing.T) {
		_, err := jwtx.NewSigningKey(jwtx.AlgHS256, "", nil, nil)
		require.ErrorIs(t, err, jwtx.ErrSigning)
		require.ErrorIs(t, err, jwtx.ErrEmptySecret)
	})

	t.Run("EdDSA requires a PEM", func(t *testing.T) {
		_, err := jwtx.NewSigningKey(jwtx.AlgEdDSA, "k", nil, []byte("garbage"))
		require.ErrorIs(t, err, jwtx.ErrSigning)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := jwtx.NewSigningKey("RS256", "", []byte("x"), nil)
		require.ErrorIs(t, err, jwtx.ErrUnsupportedAlg)
	})
}
