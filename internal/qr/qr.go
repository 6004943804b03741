// Package qr produces and parses the pipe-delimited package QR payload:
//
//	PKG|<packageCode>|<batchCode>|<sensorList_underscored>|<mac>
//
// The scanner side performs no validation at all: whatever text a QR decode
// yields is forwarded verbatim to the consumer, which may then call Parse.
package qr

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const prefix = "PKG"

// macHexLen is how many hex characters of the HMAC-SHA256 tag are kept in
// the payload. Truncation keeps the code scannable at small print sizes.
const macHexLen = 16

var (
	ErrBadPrefix    = errors.New("qr: payload does not start with PKG")
	ErrFieldCount   = errors.New("qr: payload does not have five fields")
	ErrMACMismatch  = errors.New("qr: mac mismatch")
	ErrEmptyPackage = errors.New("qr: package code is required")
)

// Payload is the decoded content of a package QR code.
type Payload struct {
	PackageCode string
	BatchCode   string
	Sensors     []string
}

// Encode renders the payload with an authentication tag keyed by key.
// Sensor names are joined with underscores; pipe characters inside fields
// would corrupt the format and are stripped.
func Encode(p Payload, key []byte) (string, error) {
	if strings.TrimSpace(p.PackageCode) == "" {
		return "", ErrEmptyPackage
	}
	body := strings.Join([]string{
		prefix,
		clean(p.PackageCode),
		clean(p.BatchCode),
		clean(strings.Join(p.Sensors, "_")),
	}, "|")
	return body + "|" + mac(body, key), nil
}

// Parse splits and verifies an encoded payload. The empty sensor field
// parses to no sensors.
func Parse(s string, key []byte) (Payload, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 5 {
		return Payload{}, ErrFieldCount
	}
	if parts[0] != prefix {
		return Payload{}, ErrBadPrefix
	}
	body := strings.Join(parts[:4], "|")
	if !hmac.Equal([]byte(mac(body, key)), []byte(parts[4])) {
		return Payload{}, ErrMACMismatch
	}
	p := Payload{PackageCode: parts[1], BatchCode: parts[2]}
	if parts[3] != "" {
		p.Sensors = strings.Split(parts[3], "_")
	}
	return p, nil
}

func mac(body string, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))[:macHexLen]
}

func clean(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", "")
}
