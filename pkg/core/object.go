package core

import "gitvault/pkg/types"

// ObjectType 是写在每个对象帧开头的类型标签
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"   // 文件内容
	TypeTree   ObjectType = "tree"   // 目录清单
	TypeCommit ObjectType = "commit" // 解析时识别，但这里从不构造
)

// IsKnown 判断 t 是否为可识别的类型标签
func (t ObjectType) IsKnown() bool {
	switch t {
	case TypeBlob, TypeTree, TypeCommit:
		return true
	}
	return false
}

func (t ObjectType) String() string { return string(t) }

// Object 是对象图中已封装、不可变的节点
type Object interface {
	// Type 返回类型标签
	Type() ObjectType

	// ID 返回完整帧的摘要
	ID() types.Hash

	// Bytes 返回完整帧 ("<kind> <len>\0<payload>")，
	// 也就是参与哈希和落盘的内容。
	Bytes() []byte
}
