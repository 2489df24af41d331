package core

import "gitvault/pkg/types"

// Blob 是对象图的叶子节点：原样保存的文件内容
type Blob struct {
	hash     types.Hash
	rawBytes []byte
	content  []byte
}

// NewBlob 把内容封装为 blob 对象
func NewBlob(content []byte) *Blob {
	// blob 永远是合法类型，封帧不会失败
	h, frame, _ := HashObject(TypeBlob, content)
	return &Blob{
		hash:     h,
		rawBytes: frame,
		content:  frame[len(frame)-len(content):],
	}
}

func (b *Blob) Type() ObjectType { return TypeBlob }
func (b *Blob) ID() types.Hash   { return b.hash }
func (b *Blob) Bytes() []byte    { return b.rawBytes }
func (b *Blob) Content() []byte  { return b.content }
func (b *Blob) Size() int64      { return int64(len(b.content)) }
