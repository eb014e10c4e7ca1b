package id

import "github.com/google/uuid"

// New returns a random UUID string, the primary key format of every table.
func New() string {
	return uuid.NewString()
}

// Valid reports whether s is a well-formed UUID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
