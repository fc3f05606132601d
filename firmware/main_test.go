package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestReadVersion(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	dir := t.TempDir()

	tests := []struct {
		name     string
		contents string
		expected string
	}{
		{"Valid", `{"version": "1.4.2"}`, "1.4.2"},
		{"MissingField", `{}`, defaultVersion},
		{"Corrupt", `{"version"`, defaultVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.contents), 0o644))
			assert.Equal(t, tt.expected, readVersion(path, logger))
		})
	}

	t.Run("MissingFile", func(t *testing.T) {
		assert.Equal(t, defaultVersion, readVersion(filepath.Join(dir, "nope.json"), logger))
	})
}

func TestCommandFlags(t *testing.T) {
	cmd := newCommand()
	assert.NotNil(t, cmd.Flags().Lookup("config"))
	assert.NotNil(t, cmd.Flags().Lookup("debug"))
}
