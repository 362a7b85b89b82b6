// Package app builds user records for the SSOP users registry. Nothing is
// written to disk except the optional QR code image; the record is printed
// for the operator to paste into the registry file.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/ssop/internal/ssop/domain"
	"github.com/aussiebroadwan/ssop/pkg/cryptox"
)

// BcryptCost matches the cost the registry has always been seeded with.
const BcryptCost = 10

type options struct {
	username   string
	email      string
	roles      string
	photoURL   string
	totp       bool
	hash       string
	pepperFile string
	qrFile     string
	format     string
}

// NewRootCmd creates the ssop-useradd command.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:               "ssop-useradd",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Short:             "Generate a user record for the SSOP users registry",
		Long: `ssop-useradd prompts for a password, hashes it and prints a user record
ready to be added to the users registry file. Values not given as flags are
prompted for. With --totp a second factor is enrolled and verified before
the record is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.username, "username", "", "Username (prompted when empty)")
	f.StringVar(&opts.email, "email", "", "Email address (prompted when empty)")
	f.StringVar(&opts.roles, "roles", "", "Comma-separated roles (prompted when empty, default user)")
	f.StringVar(&opts.photoURL, "photo-url", "", "Optional profile photo URL")
	f.BoolVar(&opts.totp, "totp", false, "Enroll a TOTP second factor")
	f.StringVar(&opts.hash, "hash", "bcrypt", "Password hash scheme (bcrypt, argon2id)")
	f.StringVar(&opts.pepperFile, "pepper-file", "", "Pepper file for argon2id, must match SSOP_PEPPER_FILE")
	f.StringVar(&opts.qrFile, "qr-file", "", "Write the TOTP enrollment QR code to this PNG file")
	f.StringVar(&opts.format, "format", "json", "Output format (json, yaml, toml)")

	return cmd
}

func run(cmd *cobra.Command, opts *options, p *prompter) error {
	if opts.format != "json" && opts.format != "yaml" && opts.format != "toml" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	hasher, err := newHasher(opts.hash, opts.pepperFile)
	if err != nil {
		return err
	}

	log := cmd.ErrOrStderr()
	fmt.Fprintln(log, "SSOP User Generator")
	fmt.Fprintln(log)

	user := domain.User{ProfilePhotoURL: strings.TrimSpace(opts.photoURL)}

	if user.Username, err = p.askUntil("Username: ", opts.username, validateUsername); err != nil {
		return err
	}

	password, err := p.askPassword("Password: ", ValidatePassword)
	if err != nil {
		return err
	}
	if user.PasswordHash, err = hasher(password); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if user.Email, err = p.askUntil("Email: ", opts.email, ValidateEmail); err != nil {
		return err
	}

	roles := opts.roles
	if roles == "" {
		if roles, err = p.ask("Roles (comma-separated) [user]: "); err != nil {
			return err
		}
		if roles == "" {
			roles = "user"
		}
	}
	user.Roles = ParseRoles(roles)

	if opts.totp {
		key, err := newTOTPKey(user.Username)
		if err != nil {
			return err
		}
		if err := enrollTOTP(log, p, key, opts.qrFile); err != nil {
			return err
		}
		user.TOTPSecret = key.Secret()
		user.TOTPEnabled = true
	}

	out, err := render(user, opts.format)
	if err != nil {
		return err
	}

	fmt.Fprintln(log)
	fmt.Fprintln(log, "Add this record to your users file and restart the server:")
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// render encodes a single record. YAML and TOML are emitted as a
// one-element list so they can be appended to a registry file as is.
func render(user domain.User, format string) (string, error) {
	switch format {
	case "yaml":
		raw, err := yaml.Marshal([]domain.User{user})
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case "toml":
		var buf strings.Builder
		doc := struct {
			Users []domain.User `toml:"users"`
		}{Users: []domain.User{user}}
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	raw, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw) + "\n", nil
}

func newHasher(scheme, pepperFile string) (func(string) (string, error), error) {
	switch scheme {
	case "bcrypt":
		if pepperFile != "" {
			return nil, errors.New("--pepper-file only applies to argon2id")
		}
		return func(pw string) (string, error) {
			return cryptox.HashPasswordBcrypt(pw, BcryptCost)
		}, nil
	case "argon2id":
		if pepperFile != "" {
			p, err := cryptox.LoadPepperFile(pepperFile, false)
			if err != nil {
				return nil, err
			}
			cryptox.SetPepper(p)
		}
		return cryptox.HashPassword, nil
	default:
		return nil, fmt.Errorf("unknown hash scheme %q", scheme)
	}
}

func validateUsername(s string) error {
	if s == "" {
		return errors.New("username is required")
	}
	if strings.ContainsAny(s, " \t:") {
		return errors.New("username must not contain spaces or colons")
	}
	return nil
}

// ParseRoles splits a comma-separated list, dropping blanks and duplicates.
func ParseRoles(s string) []string {
	roles := []string{}
	seen := map[string]bool{}
	for _, r := range strings.Split(s, ",") {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		roles = append(roles, r)
	}
	return roles
}
