package logging

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesToFile(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	path := filepath.Join(t.TempDir(), "cinelist.log")
	closer := Setup(path)
	log.Printf("Watchlist: hello from the test")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Watchlist: hello from the test")
}

func TestSetupWithoutFile(t *testing.T) {
	closer := Setup("")
	assert.NoError(t, closer.Close())
}
