package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gitvault/pkg/core"
	"gitvault/pkg/types"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRecordNotFound = errors.New("record not found in catalog")

// Repository 封装了目录的所有 SQL 操作
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// -----------------------------------------------------------------------------
// 1. 对象
// -----------------------------------------------------------------------------

// RecordObject 插入一条目录记录。记录不可变：
// 同一摘要的第二次插入会被忽略。
func (r *Repository) RecordObject(ctx context.Context, hash types.Hash, kind core.ObjectType, size int64) error {
	rec := ObjectRecord{
		Hash: string(hash),
		Type: kind.String(),
		Size: size,
	}

	err := r.db.GetConn().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hash"}},
			DoNothing: true,
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to record object %s: %w", hash, err)
	}
	return nil
}

func (r *Repository) GetObject(ctx context.Context, hash types.Hash) (*ObjectRecord, error) {
	var rec ObjectRecord
	err := r.db.GetConn().WithContext(ctx).
		Where("hash = ?", string(hash)).
		First(&rec).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListObjects 按摘要排序返回目录记录。kind 为空时列出全部；
// limit <= 0 表示不限制。
func (r *Repository) ListObjects(ctx context.Context, kind core.ObjectType, limit int) ([]ObjectRecord, error) {
	q := r.db.GetConn().WithContext(ctx).Order("hash ASC")
	if kind != "" {
		q = q.Where("type = ?", kind.String())
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []ObjectRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// CountObjects 按对象类型统计记录数
func (r *Repository) CountObjects(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Type  string
		Count int64
	}
	err := r.db.GetConn().WithContext(ctx).
		Model(&ObjectRecord{}).
		Select("type, count(*) as count").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

// -----------------------------------------------------------------------------
// 2. 快照
// -----------------------------------------------------------------------------

func (r *Repository) RecordSnapshot(ctx context.Context, root types.Hash, sourcePath string, excludes []string) (*SnapshotRecord, error) {
	if excludes == nil {
		excludes = []string{}
	}
	excludesJSON, err := json.Marshal(excludes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal excludes: %w", err)
	}

	rec := SnapshotRecord{
		RootHash:   string(root),
		SourcePath: sourcePath,
		Excludes:   datatypes.JSON(excludesJSON),
	}
	if err := r.db.GetConn().WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to record snapshot: %w", err)
	}
	return &rec, nil
}

// ListSnapshots 按时间倒序返回快照
func (r *Repository) ListSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error) {
	q := r.db.GetConn().WithContext(ctx).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []SnapshotRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
