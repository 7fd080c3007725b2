package commands

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyGlobalFlags(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("LOG_LEVEL", "info")

	require.NoError(t, rootCmd.PersistentFlags().Set("env", "staging"))
	verbose = true
	t.Cleanup(func() {
		verbose = false
		env = "development"
	})

	applyGlobalFlags(rootCmd)

	assert.Equal(t, "staging", os.Getenv("ENV"))
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
}
