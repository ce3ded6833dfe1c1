package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertSecretRedacted verifies that a secret value does not appear in a
// string and that the [REDACTED] marker appears instead.
//
//	output := someOperation()
//	AssertSecretRedacted(t, output, "password123")
func AssertSecretRedacted(t *testing.T, output, secretValue string) {
	t.Helper()

	assert.NotContains(t, output, secretValue,
		"Secret value should be redacted, but appears in output")
	assert.Contains(t, output, "[REDACTED]",
		"Expected [REDACTED] marker when secret is present")
}

// AssertNoSecretLeak verifies that none of the given secret values appear in
// the output.
func AssertNoSecretLeak(t *testing.T, output string, secretValues []string) {
	t.Helper()

	for _, v := range secretValues {
		assert.NotContains(t, output, v, "Secret value leaked into output")
	}
}
