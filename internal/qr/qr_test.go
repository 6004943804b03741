package qr

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

var testKey = []byte("qr-test-key")

func TestEncodeParse_RoundTrip(t *testing.T) {
	p := Payload{PackageCode: "PKG-001", BatchCode: "B-42", Sensors: []string{"temp", "humidity"}}
	s, err := Encode(p, testKey)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(s, "PKG|PKG-001|B-42|temp_humidity|") {
		t.Fatalf("unexpected payload shape: %q", s)
	}
	got, err := Parse(s, testKey)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Fatalf("round trip = %+v, want %+v", got, p)
	}
}

func TestEncode_NoSensors(t *testing.T) {
	s, err := Encode(Payload{PackageCode: "P1", BatchCode: "B1"}, testKey)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Parse(s, testKey)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Sensors != nil {
		t.Fatalf("empty sensor field should parse to nil, got %v", got.Sensors)
	}
}

func TestEncode_RequiresPackageCode(t *testing.T) {
	if _, err := Encode(Payload{BatchCode: "B1"}, testKey); !errors.Is(err, ErrEmptyPackage) {
		t.Fatalf("expected ErrEmptyPackage, got %v", err)
	}
}

func TestEncode_StripsDelimiter(t *testing.T) {
	s, err := Encode(Payload{PackageCode: "P|1"}, testKey)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Parse(s, testKey)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.PackageCode != "P1" {
		t.Fatalf("PackageCode = %q, want pipe stripped", got.PackageCode)
	}
}

func TestParse_Errors(t *testing.T) {
	good, err := Encode(Payload{PackageCode: "P1", BatchCode: "B1"}, testKey)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"too few fields", "PKG|a|b|c", ErrFieldCount},
		{"too many fields", good + "|extra", ErrFieldCount},
		{"wrong prefix", strings.Replace(good, "PKG|", "BOX|", 1), ErrBadPrefix},
		{"tampered body", strings.Replace(good, "P1", "P2", 1), ErrMACMismatch},
	}
	for _, c := range cases {
		if _, err := Parse(c.in, testKey); !errors.Is(err, c.want) {
			t.Fatalf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}
	if _, err := Parse(good, []byte("other-key")); !errors.Is(err, ErrMACMismatch) {
		t.Fatalf("wrong key should fail mac check, got %v", err)
	}
}
