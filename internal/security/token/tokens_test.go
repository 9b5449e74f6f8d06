package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := NewIssuer("securityservice", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return iss
}

func TestIssueParse(t *testing.T) {
	iss := newIssuer(t)
	stamp := Stamp("hash-1")

	tok, exp, err := iss.Issue("user-1", PurposePasswordReset, stamp, time.Hour)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	c, err := iss.Parse(tok, PurposePasswordReset)
	require.NoError(t, err)
	require.Equal(t, "user-1", c.Subject)
	require.NoError(t, c.Check(stamp))
	require.ErrorIs(t, c.Check(Stamp("hash-2")), ErrStaleStamp)
}

func TestParse_WrongPurpose(t *testing.T) {
	iss := newIssuer(t)
	tok, _, err := iss.Issue("user-1", PurposeConfirmEmail, "s", time.Hour)
	require.NoError(t, err)
	_, err = iss.Parse(tok, PurposePasswordReset)
	require.ErrorIs(t, err, ErrWrongPurpose)
}

func TestParse_Expired(t *testing.T) {
	iss := newIssuer(t)
	past := iss.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	tok, _, err := past.Issue("user-1", PurposePasswordReset, "s", time.Hour)
	require.NoError(t, err)
	_, err = iss.Parse(tok, PurposePasswordReset)
	require.ErrorIs(t, err, ErrExpired)
}

func TestParse_Tampered(t *testing.T) {
	iss := newIssuer(t)
	tok, _, err := iss.Issue("user-1", PurposePasswordReset, "s", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	_, err = iss.Parse(parts[0]+"."+parts[1]+"."+string(sig), PurposePasswordReset)
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewIssuer("securityservice", []byte("another-key-another-key-another-k"))
	require.NoError(t, err)
	_, err = other.Parse(tok, PurposePasswordReset)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Parse("garbage", PurposePasswordReset)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuer_EmptyKey(t *testing.T) {
	_, err := NewIssuer("x", nil)
	require.Error(t, err)

	k, err := RandomKey()
	require.NoError(t, err)
	require.Len(t, k, 32)
}

func TestStamp_Stable(t *testing.T) {
	require.Equal(t, Stamp("a", "b"), Stamp("a", "b"))
	require.NotEqual(t, Stamp("ab"), Stamp("a", "b"))
}
