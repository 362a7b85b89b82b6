package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	SetPepper("test-pepper")
	os.Exit(m.Run())
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "пароль🔒密码"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			require.Equal(t, SchemeArgon2id, HashScheme(hash))

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
			require.Equal(t, "v=19", parts[2])
			require.Equal(t, "m=19456,t=2,p=1", parts[3])
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")

			require.NoError(t, VerifyPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := HashPassword("samepassword")
	require.NoError(t, err)
	hash2, err := HashPassword("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
	require.NoError(t, VerifyPassword("samepassword", hash1))
	require.NoError(t, VerifyPassword("samepassword", hash2))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	argon, err := HashPassword("correct-password")
	require.NoError(t, err)
	bc, err := HashPasswordBcrypt("correct-password", bcrypt.MinCost)
	require.NoError(t, err)

	wrong := []string{"wrong-password", "Correct-Password", "correct-password ", "", "correct-passwor"}

	for _, hash := range []string{argon, bc} {
		for _, pw := range wrong {
			require.ErrorIs(t, VerifyPassword(pw, hash), ErrPasswordMismatch, "password %q", pw)
		}
	}
}

func TestVerifyPassword_Bcrypt(t *testing.T) {
	hash, err := HashPasswordBcrypt("Secret123", bcrypt.MinCost)
	require.NoError(t, err)
	require.Equal(t, SchemeBcrypt, HashScheme(hash))
	require.NoError(t, VerifyPassword("Secret123", hash))

	// $2y$ and $2b$ prefixes from other tooling are accepted.
	for _, prefix := range []string{"$2y$", "$2b$"} {
		alt := prefix + strings.TrimPrefix(hash, "$2a$")
		require.NoError(t, VerifyPassword("Secret123", alt), prefix)
	}
}

func TestVerifyPassword_BcryptIgnoresPepper(t *testing.T) {
	hash, err := HashPasswordBcrypt("Secret123", bcrypt.MinCost)
	require.NoError(t, err)

	SetPepper("another-pepper")
	t.Cleanup(func() { SetPepper("test-pepper") })

	require.NoError(t, VerifyPassword("Secret123", hash))
}

func TestVerifyPassword_PepperChangesArgonResult(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)

	SetPepper("another-pepper")
	t.Cleanup(func() { SetPepper("test-pepper") })

	require.ErrorIs(t, VerifyPassword("Secret123", hash), ErrPasswordMismatch)
}

func TestVerifyPassword_InvalidHashFormat(t *testing.T) {
	tests := []struct {
		name        string
		invalidHash string
		unsupported bool
	}{
		{"empty hash", "", true},
		{"plaintext", "hunter2", true},
		{"wrong algorithm", "$scrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA", true},
		{"missing parts", "$argon2id$v=19$m=19456", false},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA", false},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA", false},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!", false},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA", false},
		{"truncated bcrypt", "$2a$10$short", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyPassword("test-password", tt.invalidHash)
			require.Error(t, err)
			if tt.unsupported {
				require.ErrorIs(t, err, ErrUnsupportedHash)
			}
		})
	}
}

func TestVerifyDummy(t *testing.T) {
	require.ErrorIs(t, VerifyDummy("anything"), ErrPasswordMismatch)
	require.ErrorIs(t, VerifyDummy("dummy-password-for-timing"), ErrPasswordMismatch)
}

func TestLoadPepperFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing without create", func(t *testing.T) {
		_, err := LoadPepperFile(filepath.Join(dir, "absent"), false)
		require.Error(t, err)
	})

	t.Run("generate then reload", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "pepper")
		p1, err := LoadPepperFile(path, true)
		require.NoError(t, err)
		require.Len(t, p1, 43)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0600), info.Mode().Perm())

		p2, err := LoadPepperFile(path, false)
		require.NoError(t, err)
		require.Equal(t, p1, p2)
	})

	t.Run("trailing newline trimmed", func(t *testing.T) {
		path := filepath.Join(dir, "newline")
		require.NoError(t, os.WriteFile(path, []byte("abc\n"), 0600))
		p, err := LoadPepperFile(path, false)
		require.NoError(t, err)
		require.Equal(t, "abc", p)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty")
		require.NoError(t, os.WriteFile(path, nil, 0600))
		_, err := LoadPepperFile(path, false)
		require.Error(t, err)
	})
}
