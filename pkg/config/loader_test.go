package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())

	used, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, used)

	assert.Equal(t, ".git", viper.GetString(KeyRepoDir))
	assert.Equal(t, "disk", viper.GetString(KeyStorageType))
	assert.Equal(t, "none", viper.GetString(KeyMetaDriver))
	assert.Equal(t, -1, viper.GetInt(KeyCompressionLevel))
	assert.Equal(t, 24*time.Hour, viper.GetDuration(KeyRedisTTL))
	assert.False(t, viper.GetBool(KeyRespectIgnore))
}

func TestLoad_FileAndEnv(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `
storage:
  type: s3
  s3:
    bucket: from-file
snapshot:
  concurrency: 8
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	t.Setenv("GV_STORAGE_S3_BUCKET", "from-env")

	used, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfgPath, used)

	assert.Equal(t, "s3", viper.GetString(KeyStorageType))
	assert.Equal(t, 8, viper.GetInt(KeySnapshotConcurrent))
	assert.Equal(t, "from-env", viper.GetString(KeyS3Bucket), "环境变量覆盖配置文件")
}

func TestLoad_BrokenFile(t *testing.T) {
	viper.Reset()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage: [unclosed"), 0o644))

	_, err := Load(cfgPath)
	assert.Error(t, err)
}
