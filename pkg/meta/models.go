package meta

import (
	"time"

	"gorm.io/datatypes"
)

// ObjectRecord 是一个已存储对象在目录中的记录。
// 对象存储才是事实来源；目录只负责回答
// “这里有什么”之类的查询，免得遍历所有子目录。
type ObjectRecord struct {
	Hash string `gorm:"primaryKey;type:char(40)"`
	Type string `gorm:"index;type:varchar(16);not null"`
	Size int64  `gorm:"not null"` // 负载长度，不含头部

	CreatedAt time.Time `gorm:"index"`
}

func (ObjectRecord) TableName() string {
	return "objects"
}

// SnapshotRecord 记录一次 write-tree
type SnapshotRecord struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	RootHash   string `gorm:"index;type:char(40);not null"`
	SourcePath string `gorm:"type:text"`

	// Excludes 是本次使用的保留名和忽略规则，存为 JSON 数组
	Excludes datatypes.JSON

	CreatedAt time.Time `gorm:"index"`
}

func (SnapshotRecord) TableName() string {
	return "snapshots"
}
