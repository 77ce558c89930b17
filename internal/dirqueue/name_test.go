package dirqueue

import (
	"testing"
	"time"
)

func TestNewElementNameShape(t *testing.T) {
	now := time.Unix(1700000000, 123456000)
	name := newElementName(now, 4321)
	if len(name) != 14 {
		t.Fatalf("expected 14-character name, got %q", name)
	}
	if !isElementName(name) {
		t.Fatalf("generated name %q does not match element name pattern", name)
	}
}

func TestIsBucketName(t *testing.T) {
	cases := map[string]bool{
		"00000000": true,
		"ffffffff": true,
		"0000000":  false,
		"0000000g": false,
		"":         false,
	}
	for input, want := range cases {
		if got := isBucketName(input); got != want {
			t.Errorf("isBucketName(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNextBucketName(t *testing.T) {
	next, err := nextBucketName("00000000")
	if err != nil {
		t.Fatalf("nextBucketName: %v", err)
	}
	if next != "00000001" {
		t.Fatalf("expected 00000001, got %q", next)
	}

	if _, err := nextBucketName("not-hex"); err == nil {
		t.Fatal("expected error for malformed bucket name")
	}
}
