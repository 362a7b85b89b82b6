// Package registry loads the static user and client registries the provider
// serves. Both files are read once at startup; any fault is fatal.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/pkg/cryptox"
)

var (
	ErrInvalidUser   = errors.New("registry: invalid user")
	ErrInvalidClient = errors.New("registry: invalid client")
	ErrDuplicate     = errors.New("registry: duplicate entry")
	ErrFormat        = errors.New("registry: unsupported file format")
)

// Registry is the immutable set of users and clients.
type Registry struct {
	users   []domain.User
	clients []domain.Client

	userByName map[string]int
	clientByID map[string]int
}

// Load reads and validates the users and clients files. The format is
// chosen by extension: .json, .yaml, .yml or .toml. TOML files hold an
// array of tables named users or clients.
func Load(usersPath, clientsPath string) (*Registry, error) {
	var users []domain.User
	if err := readList(usersPath, "users", &users); err != nil {
		return nil, err
	}

	var clients []domain.Client
	if err := readList(clientsPath, "clients", &clients); err != nil {
		return nil, err
	}

	return New(users, clients)
}

// New validates users and clients and indexes them.
func New(users []domain.User, clients []domain.Client) (*Registry, error) {
	r := &Registry{
		users:      users,
		clients:    clients,
		userByName: make(map[string]int, len(users)),
		clientByID: make(map[string]int, len(clients)),
	}

	for i, u := range users {
		if err := validateUser(u); err != nil {
			return nil, fmt.Errorf("users[%d]: %w", i, err)
		}
		if _, dup := r.userByName[u.Username]; dup {
			return nil, fmt.Errorf("users[%d]: %w: username %q", i, ErrDuplicate, u.Username)
		}
		r.userByName[u.Username] = i
	}

	for i, c := range clients {
		if err := validateClient(c); err != nil {
			return nil, fmt.Errorf("clients[%d]: %w", i, err)
		}
		if _, dup := r.clientByID[c.ClientID]; dup {
			return nil, fmt.Errorf("clients[%d]: %w: client_id %q", i, ErrDuplicate, c.ClientID)
		}
		r.clientByID[c.ClientID] = i
	}

	return r, nil
}

// User returns the user with the given username.
func (r *Registry) User(username string) (domain.User, bool) {
	i, ok := r.userByName[username]
	if !ok {
		return domain.User{}, false
	}
	return r.users[i], true
}

// Client returns the client with the given id.
func (r *Registry) Client(clientID string) (domain.Client, bool) {
	i, ok := r.clientByID[clientID]
	if !ok {
		return domain.Client{}, false
	}
	return r.clients[i], true
}

// Clients returns the registered clients in file order.
func (r *Registry) Clients() []domain.Client {
	out := make([]domain.Client, len(r.clients))
	copy(out, r.clients)
	return out
}

func (r *Registry) UserCount() int   { return len(r.users) }
func (r *Registry) ClientCount() int { return len(r.clients) }

func validateUser(u domain.User) error {
	switch {
	case u.Username == "":
		return fmt.Errorf("%w: missing username", ErrInvalidUser)
	case u.PasswordHash == "":
		return fmt.Errorf("%w: %q missing password_hash", ErrInvalidUser, u.Username)
	case u.Email == "":
		return fmt.Errorf("%w: %q missing email", ErrInvalidUser, u.Username)
	case cryptox.HashScheme(u.PasswordHash) == "":
		return fmt.Errorf("%w: %q: %w", ErrInvalidUser, u.Username, cryptox.ErrUnsupportedHash)
	case u.TOTPEnabled && u.TOTPSecret == "":
		return fmt.Errorf("%w: %q has totp_enabled without totp_secret", ErrInvalidUser, u.Username)
	}
	return nil
}

func validateClient(c domain.Client) error {
	switch {
	case c.ClientID == "":
		return fmt.Errorf("%w: missing client_id", ErrInvalidClient)
	case c.ClientID == domain.InternalClientID:
		return fmt.Errorf("%w: client_id %q is reserved", ErrInvalidClient, c.ClientID)
	case c.ClientSecret == "":
		return fmt.Errorf("%w: %q missing client_secret", ErrInvalidClient, c.ClientID)
	case len(c.RedirectURIs) == 0:
		return fmt.Errorf("%w: %q missing redirect_uris", ErrInvalidClient, c.ClientID)
	}
	for _, uri := range c.RedirectURIs {
		if strings.TrimSpace(uri) == "" {
			return fmt.Errorf("%w: %q has an empty redirect uri", ErrInvalidClient, c.ClientID)
		}
	}
	return nil
}

// readList decodes a top-level array from path, or the table array named
// table for TOML. Unknown fields are rejected so typos surface at startup.
func readList(path, table string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("registry: read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("registry: %s must contain an array of records: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("registry: %s must contain a list of records: %w", path, err)
		}
	case ".toml":
		var doc map[string]toml.Primitive
		md, err := toml.Decode(string(raw), &doc)
		if err != nil {
			return fmt.Errorf("registry: parse %s: %w", path, err)
		}
		prim, ok := doc[table]
		if !ok {
			return fmt.Errorf("registry: %s must contain [[%s]] tables", path, table)
		}
		if err := md.PrimitiveDecode(prim, v); err != nil {
			return fmt.Errorf("registry: %s must contain [[%s]] tables: %w", path, table, err)
		}
		if extra := md.Undecoded(); len(extra) > 0 {
			return fmt.Errorf("registry: %s has unknown keys %v", path, extra)
		}
	default:
		return fmt.Errorf("%w: %s", ErrFormat, path)
	}
	return nil
}
