package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/VectorBits/GasGuardian/src/internal/logger"
)

// gormConfig SQL 告警与慢查询写入分析日志文件
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.New(
			log.New(logger.GetLogWriter(), "[gorm] ", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             500 * time.Millisecond,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	}
}

// NewSQLiteDB 打开 SQLite 文件，目录不存在时自动创建
func NewSQLiteDB(dbPath string) (*gorm.DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}
	return db, nil
}

// NewPostgresDB 按配置连接 PostgreSQL
func NewPostgresDB(config *AppConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.GetPostgresDSN()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return db, nil
}
