package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gitvault/pkg/core"
	"gitvault/pkg/storage"
	"gitvault/pkg/storage/codec"
	"gitvault/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// Adapter 在兼容 S3 的 Bucket 上实现 storage.Store 接口。
// Key 沿用松散对象布局，Bucket 就是仓库 objects/ 目录的镜像。
type Adapter struct {
	client *s3.Client
	bucket string
	codec  *codec.Codec
}

// Config 用于初始化 Adapter
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Codec           *codec.Codec
	Logger          *zap.Logger
}

// NewAdapter 创建 S3 客户端 (aws-sdk-go-v2 风格，每个 client 单独设置 BaseEndpoint)
func NewAdapter(ctx context.Context, cfg Config) (*Adapter, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// 1. 基础配置：只设置 Region 和静态凭证
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	// 2. S3 专属选项
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		// MinIO 必须用 Path Style：http://host:9000/bucket/key
		o.UsePathStyle = true
	})

	// 3. 确保 Bucket 存在
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &cfg.Bucket}); err != nil {
		if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &cfg.Bucket}); err != nil {
			log.Warn("failed to ensure bucket exists", zap.String("bucket", cfg.Bucket), zap.Error(err))
		}
	}

	c := cfg.Codec
	if c == nil {
		c = codec.New(codec.DefaultLevel)
	}

	return &Adapter{
		client: client,
		bucket: cfg.Bucket,
		codec:  c,
	}, nil
}

// Put 上传压缩后的帧
func (s *Adapter) Put(ctx context.Context, obj core.Object) error {
	// 1. 去重：HEAD 比 PUT 便宜
	exists, err := s.Has(ctx, obj.ID())
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	data, err := s.codec.Compress(obj.Bytes())
	if err != nil {
		return fmt.Errorf("%w: compress %s: %w", core.ErrIO, obj.ID(), err)
	}

	// 2. 上传；S3 对单个 Key 的 PUT 是原子的，并发写入无害
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(storage.ObjectPath(obj.ID())),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/zlib"),
	})
	if err != nil {
		return fmt.Errorf("%w: s3 put %s: %w", core.ErrIO, obj.ID(), err)
	}
	return nil
}

// Get 下载并解压对象
func (s *Adapter) Get(ctx context.Context, hash types.Hash) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storage.ObjectPath(hash)),
	})
	if err != nil {
		// 把 NoSuchKey 映射为我们自己的 not-found
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", core.ErrObjectNotFound, hash)
		}
		return nil, fmt.Errorf("%w: s3 get %s: %w", core.ErrIO, hash, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: s3 read %s: %w", core.ErrIO, hash, err)
	}

	frame, err := s.codec.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", hash, err)
	}
	return frame, nil
}

// Has 通过 HEAD 请求检查对象是否存在
func (s *Adapter) Has(ctx context.Context, hash types.Hash) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storage.ObjectPath(hash)),
	})
	if err == nil {
		return true, nil
	}

	var notFound *s3types.NotFound
	var noKey *s3types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noKey) {
		return false, nil
	}
	// 有些 S3 实现只返回通用的 404
	if strings.Contains(err.Error(), "404") {
		return false, nil
	}

	return false, fmt.Errorf("%w: s3 head %s: %w", core.ErrIO, hash, err)
}

// ExpandHash 通过前缀列举解析缩写摘要
func (s *Adapter) ExpandHash(ctx context.Context, prefix types.HashPrefix) (types.Hash, error) {
	if err := storage.CheckPrefix(prefix); err != nil {
		return "", err
	}

	// MaxKeys=2 足以区分无匹配、唯一匹配和歧义
	resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(storage.ObjectPath(types.Hash(prefix))),
		MaxKeys: aws.Int32(2),
	})
	if err != nil {
		return "", fmt.Errorf("%w: s3 list: %w", core.ErrIO, err)
	}

	switch n := aws.ToInt32(resp.KeyCount); {
	case n == 0:
		return "", fmt.Errorf("%w: %s", core.ErrObjectNotFound, prefix)
	case n > 1:
		return "", fmt.Errorf("%w: %s", storage.ErrAmbiguousHash, prefix)
	}

	h := keyToHash(aws.ToString(resp.Contents[0].Key))
	if !h.IsValid() {
		return "", fmt.Errorf("%w: %s", core.ErrObjectNotFound, prefix)
	}
	return h, nil
}

// Walk 分页遍历 objects/ 下的所有 Key
func (s *Adapter) Walk(ctx context.Context, fn storage.WalkFunc) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String("objects/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("%w: s3 list: %w", core.ErrIO, err)
		}
		for _, obj := range page.Contents {
			h := keyToHash(aws.ToString(obj.Key))
			if !h.IsValid() {
				continue
			}
			if err := fn(h); err != nil {
				return err
			}
		}
	}
	return nil
}

// keyToHash 是 storage.ObjectPath 的逆操作："objects/ab/cd..." -> "abcd..."
func keyToHash(key string) types.Hash {
	rest := strings.TrimPrefix(key, "objects/")
	return types.Hash(strings.Replace(rest, "/", "", 1))
}
