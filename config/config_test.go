package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredEnvVars(t *testing.T) {
	assert.ElementsMatch(t, []string{"MONGODB_URI", "MONGODB_DB", "JWT_SECRET"}, RequiredEnvVars)
}

func TestAWSCredentialsListedOptional(t *testing.T) {
	// startup logging must report these as loaded without printing values
	assert.Contains(t, OptionalEnvVars, "AWS_ACCESS_KEY_ID")
	assert.Contains(t, OptionalEnvVars, "AWS_SECRET_ACCESS_KEY")
	assert.NotContains(t, RequiredEnvVars, "AWS_ACCESS_KEY_ID")
	assert.NotContains(t, RequiredEnvVars, "AWS_SECRET_ACCESS_KEY")
}
