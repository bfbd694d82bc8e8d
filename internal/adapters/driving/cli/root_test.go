package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munidoc-labs/amtsrag/internal/config"
)

func commandNames() []string {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	return names
}

func TestRootRegistersCommands(t *testing.T) {
	names := commandNames()
	assert.Contains(t, names, "build")
	assert.Contains(t, names, "ask")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "version")
}

func TestVersionCmdExecutes(t *testing.T) {
	original := Version
	Version = "1.2.3-test"
	defer func() { Version = original }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "amtsrag 1.2.3-test")
}

func TestBuildCmdRequiresArgs(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"build"})
	defer rootCmd.SetArgs(nil)

	assert.Error(t, rootCmd.Execute())
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	originalPath := cfgPath
	cfgPath = ""
	defer func() { cfgPath = originalPath }()
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, loadConfig())
	require.NotNil(t, cfg)
	assert.Equal(t, config.DefaultTopK, cfg.Retrieval.TopK)
	assert.InDelta(t, 1.0, cfg.Retrieval.DenseWeight+cfg.Retrieval.SparseWeight, 1e-9)
}

func TestApplyEnvCredentials(t *testing.T) {
	t.Setenv("AMTSRAG_EMBEDDING_API_KEY", "emb-key")
	t.Setenv("AMTSRAG_LLM_API_KEY", "llm-key")

	c := config.Default()
	applyEnvCredentials(c)

	assert.Equal(t, "emb-key", c.Embedding.APIKey)
	assert.Equal(t, "llm-key", c.LLM.APIKey)
}
