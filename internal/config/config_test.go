package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "varq.yaml")
	err := os.WriteFile(path, []byte(`
listen: "127.0.0.1:9000"
store:
  driver: postgres
  url: postgres://varq@localhost/varq
evaluation:
  timeout: 5s
  parallelism: 2
  default_query_type: VM_LAZY
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://varq@localhost/varq", cfg.Store.URL)
	assert.Equal(t, 5*time.Second, cfg.Evaluation.Timeout)
	assert.Equal(t, 2, cfg.Evaluation.Parallelism)
	assert.Equal(t, "VM_LAZY", cfg.Evaluation.DefaultQueryType)
	assert.False(t, cfg.Evaluation.AllowUnknownNodes)
	assert.True(t, cfg.Metrics, "unset keys keep defaults")
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "listen: :80\nlisten_addr: :81\n", "failed to parse YAML"},
		{"bad driver", "store:\n  driver: mysql\n", `store.driver must be "sqlite" or "postgres", got "mysql"`},
		{"postgres without url", "store:\n  driver: postgres\n", "store.url is required"},
		{"sqlite without path", "store:\n  path: \"\"\n", "store.path is required"},
		{"negative timeout", "evaluation:\n  timeout: -1s\n", "evaluation.timeout must not be negative"},
		{"bad query type", "evaluation:\n  default_query_type: bfs\n", "evaluation.default_query_type"},
		{"empty listen", "listen: \"\"\n", "listen address is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
