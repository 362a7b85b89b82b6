package app

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPIssuer labels the account in authenticator apps.
const TOTPIssuer = "SSOP"

const qrSize = 256

var sixDigits = regexp.MustCompile(`^\d{6}$`)

// newTOTPKey is swapped in tests to get a known secret.
var newTOTPKey = func(username string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      TOTPIssuer,
		AccountName: username + "@" + TOTPIssuer,
	})
}

// enrollTOTP shows the key to the operator and requires one valid code
// before the secret is accepted.
func enrollTOTP(log io.Writer, p *prompter, key *otp.Key, qrFile string) error {
	fmt.Fprintln(log)
	fmt.Fprintln(log, "TOTP Setup Required:")
	fmt.Fprintf(log, "Secret: %s\n", key.Secret())
	fmt.Fprintf(log, "Setup URL: %s\n", key.URL())

	if qrFile != "" {
		if err := writeQR(key, qrFile); err != nil {
			return err
		}
		fmt.Fprintf(log, "QR code written to %s\n", qrFile)
	}
	fmt.Fprintln(log)

	_, err := p.askUntil("Enter TOTP code from your app: ", "", func(code string) error {
		code = strings.ReplaceAll(code, " ", "")
		if !sixDigits.MatchString(code) {
			return errors.New("please enter a 6-digit code")
		}
		if !totp.Validate(code, key.Secret()) {
			return errors.New("invalid TOTP code, please try again")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("totp enrollment: %w", err)
	}

	fmt.Fprintln(log, "TOTP verified successfully!")
	return nil
}

func writeQR(key *otp.Key, path string) error {
	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return fmt.Errorf("render qr code: %w", err)
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create qr file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("write qr file: %w", err)
	}
	return f.Close()
}
