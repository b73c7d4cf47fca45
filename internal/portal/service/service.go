package service

import (
	"time"

	"github.com/aussiebroadwan/campus/pkg/cryptox"
	passwordvalidator "github.com/wagslane/go-password-validator"
)

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}

// newLinkToken returns a raw emailed token and the fingerprint to store.
func newLinkToken() (raw, hash string, err error) {
	raw, err = cryptox.GenerateHexToken(cryptox.TokenSize256)
	if err != nil {
		return "", "", err
	}
	return raw, cryptox.FingerprintToken(raw), nil
}

// checkStrength applies the optional entropy policy. A non-positive minimum
// disables it.
func checkStrength(password string, minEntropy float64) error {
	if minEntropy <= 0 {
		return nil
	}
	if err := passwordvalidator.Validate(password, minEntropy); err != nil {
		return ErrWeakPassword
	}
	return nil
}
