package meta

import (
	"context"
	"fmt"
	"testing"

	"gitvault/pkg/core"
	"gitvault/pkg/types"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestRepo 为每个测试创建独立的内存目录库
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	metaDB := NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate())

	return NewRepository(metaDB)
}

// mockHash 根据 input 生成一个合法摘要
func mockHash(input string) types.Hash {
	return core.NewBlob([]byte(input)).ID()
}

func mustRecordObject(t *testing.T, repo *Repository, hash types.Hash, kind core.ObjectType, size int64, msgAndArgs ...any) {
	t.Helper()
	require.NoError(t, repo.RecordObject(context.Background(), hash, kind, size), msgAndArgs...)
}
