package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	internal "github.com/ZanzyTHEbar/misim/misim"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	tempDir, err := os.MkdirTemp("", "misim-config-test-*")
	require.NoError(suite.T(), err)
	suite.tempDir = tempDir

	err = os.Chdir(tempDir)
	require.NoError(suite.T(), err)
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}

	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), internal.DefaultProvider, cfg.Oracle.Provider)
	assert.Equal(suite.T(), internal.DefaultModel, cfg.Oracle.Model)
	assert.Equal(suite.T(), time.Second, cfg.Oracle.BackoffBase)
	assert.Equal(suite.T(), time.Minute, cfg.Oracle.BackoffCap)
	assert.Equal(suite.T(), 100*time.Millisecond, cfg.Oracle.RateLimitRefillRate)

	assert.Equal(suite.T(), internal.DefaultOutputDir, cfg.Run.OutputDir)
	assert.Equal(suite.T(), 1, cfg.Run.Rounds)
	assert.Equal(suite.T(), 50, cfg.Run.MaxTurns)

	assert.Equal(suite.T(), 20, cfg.Session.SemanticAfterTurn)
	assert.InDelta(suite.T(), 0.9, cfg.Session.LoopOverlapThreshold, 1e-9)
	assert.Equal(suite.T(), 40, cfg.Session.CompleteMinLines)

	assert.Equal(suite.T(), 5, cfg.Client.OffTopicLimit)
	assert.Equal(suite.T(), 12, cfg.Client.OffTopicMinLines)
	assert.Equal(suite.T(), 5, cfg.Client.ParseAttempts)
	assert.Equal(suite.T(), 5, cfg.Client.ReplyAttempts)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
oracle:
  provider: gemini
  model: gemini-test
  backoff_base: 250ms
run:
  output_dir: ./transcripts
  rounds: 3
  max_turns: 12
  workers: 2
  seed: 42
session:
  semantic_after_turn: 8
client:
  off_topic_limit: 3
`

	configFile := filepath.Join(suite.tempDir, "config.yaml")
	err := os.WriteFile(configFile, []byte(configContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), "gemini", cfg.Oracle.Provider)
	assert.Equal(suite.T(), "gemini-test", cfg.Oracle.Model)
	assert.Equal(suite.T(), 250*time.Millisecond, cfg.Oracle.BackoffBase)
	assert.Equal(suite.T(), "./transcripts", cfg.Run.OutputDir)
	assert.Equal(suite.T(), 3, cfg.Run.Rounds)
	assert.Equal(suite.T(), 12, cfg.Run.MaxTurns)
	assert.Equal(suite.T(), 2, cfg.Run.Workers)
	assert.Equal(suite.T(), uint64(42), cfg.Run.Seed)
	assert.Equal(suite.T(), 8, cfg.Session.SemanticAfterTurn)
	assert.Equal(suite.T(), 3, cfg.Client.OffTopicLimit)

	// untouched keys keep their defaults
	assert.Equal(suite.T(), 5, cfg.Client.ParseAttempts)
}

func (suite *ConfigTestSuite) TestLoadConfigEnvOverride() {
	suite.T().Setenv("RUN_ROUNDS", "7")
	suite.T().Setenv("ORACLE_MODEL", "env-model")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 7, cfg.Run.Rounds)
	assert.Equal(suite.T(), "env-model", cfg.Oracle.Model)
}

func (suite *ConfigTestSuite) TestLoadConfigInvalidFile() {
	// An explicit path that does not exist is an error
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	malformedContent := `
run:
  rounds: 2
  invalid_yaml: [unclosed bracket
`

	configFile := filepath.Join(suite.tempDir, "malformed.yaml")
	err := os.WriteFile(configFile, []byte(malformedContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigRejectsUnknownProvider() {
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	err := os.WriteFile(configFile, []byte("oracle:\n  provider: carrier-pigeon\n"), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestAppConfigGlobal() {
	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), cfg.Run.OutputDir, AppConfig.Run.OutputDir)
}

func TestValidate(t *testing.T) {
	base := Config{
		Oracle:  OracleConfig{Provider: "openai"},
		Run:     RunConfig{Rounds: 1, MaxTurns: 1, Workers: 1},
		Session: SessionConfig{LoopOverlapThreshold: 0.9},
		Client:  ClientConfig{ParseAttempts: 1, ReplyAttempts: 1},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Run.Workers = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Session.LoopOverlapThreshold = 1.5
	assert.Error(t, bad.Validate())

	bad = base
	bad.Client.ReplyAttempts = 0
	assert.Error(t, bad.Validate())
}

// BenchmarkLoadConfig benchmarks config loading performance
func BenchmarkLoadConfig(b *testing.B) {
	for b.Loop() {
		cfg, err := LoadConfig("")
		if err != nil {
			b.Fatal(err)
		}
		_ = cfg
	}
}
