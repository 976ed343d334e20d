package service

import (
	"errors"
	"testing"
)

func isValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func ptr[T any](v T) *T { return &v }

func requireNoError(t *testing.T, err error, what string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}
