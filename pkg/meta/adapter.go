package meta

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config 选择目录数据库
type Config struct {
	Driver string // sqlite | postgres
	DSN    string // sqlite 为文件路径，postgres 为 "host=... user=..."
	Debug  bool   // 打印每条 SQL
}

// DB 封装了 GORM 句柄，是目录层的入口
type DB struct {
	conn *gorm.DB
}

// NewDB 打开目录库，配置连接池并迁移表结构
func NewDB(ctx context.Context, cfg Config) (*DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", cfg.Driver)
	}

	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Driver == DriverPostgres {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// sqlite 本来就串行写
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	d := &DB{conn: db}
	if err := d.AutoMigrate(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewWithConn 包装已有的 GORM 连接 (测试、共享连接池)
func NewWithConn(conn *gorm.DB) *DB {
	return &DB{conn: conn}
}

// AutoMigrate 创建或更新目录表
func (d *DB) AutoMigrate() error {
	if err := d.conn.AutoMigrate(&ObjectRecord{}, &SnapshotRecord{}); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}

func (d *DB) GetConn() *gorm.DB {
	return d.conn
}

// Close 释放底层连接池
func (d *DB) Close() error {
	sqlDB, err := d.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
