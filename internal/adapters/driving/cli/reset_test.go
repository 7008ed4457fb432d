package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetCmd_ClearsIndex(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	stub := &stubIndex{}
	vectorIndex = stub

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"reset"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	require.NoError(t, err)

	assert.Equal(t, 1, stub.resets)
	assert.Contains(t, buf.String(), "Vector index cleared.")
}

func TestResetCmd_PropagatesError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	vectorIndex = &stubIndex{resetErr: errors.New("remove failed")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"reset"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "remove failed")
}

func TestResetCmd_IndexNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	vectorIndex = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"reset"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "vector index not configured")
}
