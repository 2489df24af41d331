package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// app 容器和 CLI 读取的配置 Key
const (
	KeyRepoPath = "repo.path"
	KeyRepoDir  = "repo.dir"

	KeyStorageType        = "storage.type"
	KeyCompressionLevel   = "storage.compression_level"
	KeyCacheSize          = "storage.cache_size"
	KeyS3Endpoint         = "storage.s3.endpoint"
	KeyS3Region           = "storage.s3.region"
	KeyS3Bucket           = "storage.s3.bucket"
	KeyS3AccessKeyID      = "storage.s3.access_key_id"
	KeyS3SecretAccessKey  = "storage.s3.secret_access_key"
	KeyRedisURL           = "cache.redis_url"
	KeyRedisTTL           = "cache.ttl"
	KeyMetaDriver         = "meta.driver"
	KeyMetaDSN            = "meta.dsn"
	KeySnapshotConcurrent = "snapshot.concurrency"
	KeyRespectIgnore      = "snapshot.respect_ignore"
	KeyFsckConcurrency    = "fsck.concurrency"
	KeyLogLevel           = "log.level"
	KeyLogFormat          = "log.format"
)

// "storage.s3.bucket" -> GV_STORAGE_S3_BUCKET
var envKeyReplacer = strings.NewReplacer(".", "_")

// Load 初始化 viper。cfgFile 是可选的显式配置文件路径。
// 返回实际使用的配置文件；只用默认值和环境变量时
// 返回 ""。
func Load(cfgFile string) (string, error) {
	// 1. 默认值
	setDefaults()

	// 2. 搜索路径
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// 1) 当前目录 2) ./.gv 3) ~/.gv
		viper.AddConfigPath(".")
		viper.AddConfigPath(".gv")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".gv"))
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// 3. 环境变量 (GV_REPO_PATH, GV_STORAGE_TYPE, ...)
	viper.SetEnvPrefix("GV")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	// 4. 配置文件；找不到没关系，格式错误不行
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("fatal error config file: %w", err)
	}

	return viper.ConfigFileUsed(), nil
}

func setDefaults() {
	// 仓库
	viper.SetDefault(KeyRepoDir, ".git")
	viper.SetDefault(KeyRepoPath, filepath.Join(".", ".git"))

	// 存储
	viper.SetDefault(KeyStorageType, "disk")
	viper.SetDefault(KeyCompressionLevel, -1)
	viper.SetDefault(KeyCacheSize, 0)
	viper.SetDefault(KeyS3Region, "us-east-1")

	// Redis 存在性缓存，未配置 URL 时关闭
	viper.SetDefault(KeyRedisURL, "")
	viper.SetDefault(KeyRedisTTL, 24*time.Hour)

	// 元数据目录
	viper.SetDefault(KeyMetaDriver, "none")
	viper.SetDefault(KeyMetaDSN, "")

	// 快照与 fsck
	viper.SetDefault(KeySnapshotConcurrent, 1)
	viper.SetDefault(KeyRespectIgnore, false)
	viper.SetDefault(KeyFsckConcurrency, 4)

	// 日志
	viper.SetDefault(KeyLogLevel, "warn")
	viper.SetDefault(KeyLogFormat, "console")
}
