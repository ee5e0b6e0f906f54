package main

import (
	"io"
	"testing"
	"time"

	"github.com/josinaldojr/pubmed-rag/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		VectorStorePath:       "./vectorstore",
		VectorStoreCollection: "pubmed-rag",
		LoadMaxDocs:           10,
		MaxRetry:              100,
		SleepTime:             500 * time.Millisecond,
	}
}

func TestRootCmdRequiresSource(t *testing.T) {
	cmd := newRootCmd(testConfig())
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	assert.ErrorContains(t, err, "--query or --path")
}

func TestRootCmdFlagDefaults(t *testing.T) {
	cmd := newRootCmd(testConfig())
	f := cmd.Flags()

	out, err := f.GetString("out")
	require.NoError(t, err)
	assert.Equal(t, "./vectorstore", out)

	retries, err := f.GetInt("max-retry")
	require.NoError(t, err)
	assert.Equal(t, 100, retries)

	sleep, err := f.GetDuration("sleep-time")
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, sleep)
}
