package testutil

import "testing"

// Given names a precondition subtest. Together with When and Then it keeps
// scenario tests readable without a BDD framework.
func Given(t *testing.T, description string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+description, fn)
}

// When names the action under test.
func When(t *testing.T, description string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+description, fn)
}

// Then names the expected outcome.
func Then(t *testing.T, description string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+description, fn)
}
