package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/pkg/cryptox"
)

const bcryptHash = "$2b$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_JSON(t *testing.T) {
	users := writeFile(t, "users.json", `[
		{"username":"alice","password_hash":"`+bcryptHash+`","email":"alice@example.com","roles":["admin"]},
		{"username":"bob","password_hash":"$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA","email":"bob@example.com","roles":[],"totp_secret":"JBSWY3DPEHPK3PXP","totp_enabled":true}
	]`)
	clients := writeFile(t, "clients.json", `[
		{"client_id":"app","client_secret":"s3cret","redirect_uris":["https://app.example.com/cb"],"scopes":["openid"]}
	]`)

	reg, err := Load(users, clients)
	require.NoError(t, err)
	require.Equal(t, 2, reg.UserCount())
	require.Equal(t, 1, reg.ClientCount())

	alice, ok := reg.User("alice")
	require.True(t, ok)
	require.Equal(t, []string{"admin"}, alice.Roles)
	require.False(t, alice.HasSecondFactor())

	bob, ok := reg.User("bob")
	require.True(t, ok)
	require.True(t, bob.HasSecondFactor())

	_, ok = reg.User("carol")
	require.False(t, ok)

	app, ok := reg.Client("app")
	require.True(t, ok)
	require.True(t, app.HasRedirectURI("https://app.example.com/cb"))
	require.False(t, app.HasRedirectURI("https://app.example.com/cb/"))
}

func TestLoad_YAML(t *testing.T) {
	users := writeFile(t, "users.yaml", `
- username: alice
  password_hash: "`+bcryptHash+`"
  email: alice@example.com
  roles: [admin, user]
  profile_photo_url: https://example.com/a.png
`)
	clients := writeFile(t, "clients.yml", `
- client_id: app
  client_secret: s3cret
  redirect_uris:
    - https://app.example.com/cb
`)

	reg, err := Load(users, clients)
	require.NoError(t, err)

	alice, ok := reg.User("alice")
	require.True(t, ok)
	require.Equal(t, "https://example.com/a.png", alice.ProfilePhotoURL)
	require.True(t, alice.HasRole("user"))
	require.Len(t, reg.Clients(), 1)
}

func TestLoad_TOML(t *testing.T) {
	users := writeFile(t, "users.toml", `
[[users]]
username = "alice"
password_hash = "`+bcryptHash+`"
email = "alice@example.com"
roles = ["admin"]
totp_secret = "JBSWY3DPEHPK3PXP"
totp_enabled = true
`)
	clients := writeFile(t, "clients.toml", `
[[clients]]
client_id = "app"
client_secret = "s3cret"
redirect_uris = ["https://app.example.com/cb"]
`)

	reg, err := Load(users, clients)
	require.NoError(t, err)

	alice, ok := reg.User("alice")
	require.True(t, ok)
	require.Equal(t, bcryptHash, alice.PasswordHash)
	require.True(t, alice.HasSecondFactor())

	app, ok := reg.Client("app")
	require.True(t, ok)
	require.Equal(t, "s3cret", app.ClientSecret)
}

func TestLoad_TOMLFaults(t *testing.T) {
	clients := writeFile(t, "clients.toml", "[[clients]]\nclient_id = \"app\"\nclient_secret = \"s\"\nredirect_uris = [\"https://a/cb\"]\n")

	tests := []struct {
		name  string
		users string
	}{
		{"wrong table", "[[people]]\nusername = \"alice\"\n"},
		{"unknown key", "[[users]]\nusername = \"alice\"\npassword_hash = \"" + bcryptHash + "\"\nemail = \"a@example.com\"\nadmin = true\n"},
		{"syntax", "[[users]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "users.toml", tt.users), clients)
			require.Error(t, err)
		})
	}
}

func TestLoad_Faults(t *testing.T) {
	validUsers := `[{"username":"alice","password_hash":"` + bcryptHash + `","email":"a@example.com","roles":[]}]`
	validClients := `[{"client_id":"app","client_secret":"s","redirect_uris":["https://app/cb"]}]`

	tests := []struct {
		name    string
		users   string
		clients string
		ext     string
		wantErr error
	}{
		{"users not an array", `{"username":"alice"}`, validClients, ".json", nil},
		{"unknown field", `[{"username":"alice","password_hash":"` + bcryptHash + `","email":"a@example.com","admin":true}]`, validClients, ".json", nil},
		{"missing email", `[{"username":"alice","password_hash":"` + bcryptHash + `"}]`, validClients, ".json", ErrInvalidUser},
		{"missing password hash", `[{"username":"alice","email":"a@example.com"}]`, validClients, ".json", ErrInvalidUser},
		{"plaintext password hash", `[{"username":"alice","password_hash":"hunter2","email":"a@example.com"}]`, validClients, ".json", cryptox.ErrUnsupportedHash},
		{"totp without secret", `[{"username":"alice","password_hash":"` + bcryptHash + `","email":"a@example.com","totp_enabled":true}]`, validClients, ".json", ErrInvalidUser},
		{"duplicate username", `[{"username":"alice","password_hash":"` + bcryptHash + `","email":"a@example.com"},{"username":"alice","password_hash":"` + bcryptHash + `","email":"b@example.com"}]`, validClients, ".json", ErrDuplicate},
		{"missing redirect uris", validUsers, `[{"client_id":"app","client_secret":"s"}]`, ".json", ErrInvalidClient},
		{"missing client secret", validUsers, `[{"client_id":"app","redirect_uris":["https://app/cb"]}]`, ".json", ErrInvalidClient},
		{"reserved client id", validUsers, `[{"client_id":"internal-client","client_secret":"s","redirect_uris":["https://app/cb"]}]`, ".json", ErrInvalidClient},
		{"duplicate client", validUsers, `[{"client_id":"app","client_secret":"s","redirect_uris":["https://a/cb"]},{"client_id":"app","client_secret":"t","redirect_uris":["https://b/cb"]}]`, ".json", ErrDuplicate},
		{"unsupported extension", validUsers, validClients, ".toml", ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := writeFile(t, "users"+tt.ext, tt.users)
			clients := writeFile(t, "clients"+tt.ext, tt.clients)

			_, err := Load(users, clients)
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clients := writeFile(t, "clients.json", `[]`)
	_, err := Load(filepath.Join(t.TempDir(), "users.json"), clients)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNew_EmptyRegistries(t *testing.T) {
	reg, err := New(nil, nil)
	require.NoError(t, err)
	require.Zero(t, reg.UserCount())

	_, ok := reg.Client(domain.InternalClientID)
	require.False(t, ok)
}
