package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubestudio/dataset-admin/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, config.Default().Address, cfg.Address)
	assert.Equal(t, "/data/k8s/kubeflow/dataset", cfg.Dataset.Root)
	assert.Equal(t, "minio", cfg.Store.Type)
	assert.Equal(t, 24*time.Hour, cfg.Store.Expiry)
	require.Len(t, cfg.Dataset.Rewrites, 2)
	assert.Equal(t, "/mnt/", cfg.Dataset.Rewrites[0].Prefix)
}

func TestLoadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	content := `
address: 127.0.0.1:9000
shutdown_timeout: 5s
store:
  type: s3
  s3:
    bucket: datasets
tasks:
  redis_addr: localhost:6379
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	cfg, err := config.Load(viper.New(), file)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Address)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "s3", cfg.Store.Type)
	assert.Equal(t, "datasets", cfg.Store.S3.Bucket)
	assert.Equal(t, "us-east-1", cfg.Store.S3.Region)
	assert.Equal(t, "localhost:6379", cfg.Tasks.RedisAddr)
	assert.Equal(t, "dataset:tasks", cfg.Tasks.Queue)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("DATASET_ADMIN_STORE_URL", "postgres://localhost/datasets")

	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/datasets", cfg.StoreURL)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.StoreURL = ""
	cfg.Dataset.Rewrites = append(cfg.Dataset.Rewrites, config.PathRewrite{})

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store_url")
	assert.Contains(t, err.Error(), "dataset.rewrites[2].prefix")
}
