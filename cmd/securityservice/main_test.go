package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/security/secretbox"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestEncrypt(t *testing.T) {
	key := strings.Repeat("m", 32)
	t.Setenv(secretbox.EnvKey, key)
	box, err := secretbox.FromString(key)
	require.NoError(t, err)

	out, err := run(t, "", "encrypt", "smtp-pass")
	require.NoError(t, err)
	plain, err := box.Open(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Equal(t, "smtp-pass", plain)

	out, err = run(t, "desde-stdin\n", "encrypt")
	require.NoError(t, err)
	plain, err = box.Open(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Equal(t, "desde-stdin", plain)
}

func TestEncrypt_MissingKey(t *testing.T) {
	t.Setenv(secretbox.EnvKey, "")
	_, err := run(t, "", "encrypt", "x")
	require.ErrorContains(t, err, secretbox.EnvKey)
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	_, err := run(t, "", "migrate", "up")
	require.ErrorContains(t, err, "postgres")
}

func TestSeed_Memory(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	_, err := run(t, "", "seed")
	require.NoError(t, err)
}
