package id

import "testing"

func TestNewIsValid(t *testing.T) {
	a, b := New(), New()
	if !Valid(a) || !Valid(b) {
		t.Fatalf("expected valid uuids, got %q and %q", a, b)
	}
	if a == b {
		t.Fatal("expected distinct ids")
	}
	if Valid("job-123") {
		t.Fatal("expected non-uuid to be invalid")
	}
}
