package scheduler

import (
	"encoding/base64"
	"fmt"
	"net/url"
)

const (
	sessionNumberMin  = 1_000_000
	sessionNumberSpan = 9_999_999 // numbers fall in [1_000_000, 10_999_999)

	PassCodeLength   = 8
	PassCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// SessionName returns base64("<summary> (<n>)") for a random n.
func SessionName(r Random) (string, error) {
	n, err := r.Intn(sessionNumberSpan)
	if err != nil {
		return "", fmt.Errorf("session name: %w", err)
	}
	name := fmt.Sprintf("%s (%d)", EventSummary, sessionNumberMin+n)
	return base64.StdEncoding.EncodeToString([]byte(name)), nil
}

// PassCode returns the base64 encoding of PassCodeLength characters drawn
// from PassCodeAlphabet.
func PassCode(r Random) (string, error) {
	buf := make([]byte, PassCodeLength)
	for i := range buf {
		k, err := r.Intn(len(PassCodeAlphabet))
		if err != nil {
			return "", fmt.Errorf("passcode: %w", err)
		}
		buf[i] = PassCodeAlphabet[k]
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// JoinLink points back at the session page of this service.
func JoinLink(base, sessionName, passCode string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("join link: %w", err)
	}
	q := u.Query()
	q.Set("sessionName", sessionName)
	q.Set("passcode", passCode)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
