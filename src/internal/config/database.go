package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/VectorBits/GasGuardian/src/internal/logger"
)

// AnalysisTable 分析历史表名
const AnalysisTable = "gas_analyses"

// InitDB 初始化 MySQL 连接池；数据库不存在时先建库，再建表
func InitDB(ctx context.Context, config *AppConfig) (*sql.DB, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if config == nil {
		return nil, fmt.Errorf("InitDB: configuration is nil")
	}

	// 1. 尝试直接连接指定数据库
	dsn := config.GetDatabaseDSN(true)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("InitDB: %w", err)
	}

	// 检查连接
	ctxPing, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	err = db.PingContext(ctxPing)
	cancelPing()

	if err != nil {
		// 2. 如果连接失败（可能是数据库不存在），尝试连接到 MySQL server root 并创建数据库
		logger.Warn("Database ping failed for '%s': %v", config.Database.Name, err)

		dbRoot, errRoot := sql.Open("mysql", config.GetDatabaseDSN(false))
		if errRoot != nil {
			db.Close()
			return nil, fmt.Errorf("InitDB: %w", errRoot)
		}
		defer dbRoot.Close()

		createDBSQL := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` DEFAULT CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", config.Database.Name)
		if _, errExec := dbRoot.ExecContext(ctx, createDBSQL); errExec != nil {
			db.Close()
			return nil, fmt.Errorf("InitDB: create database: %w", errExec)
		}
		logger.Info("Database '%s' created successfully (or already exists)", config.Database.Name)

		// 重新连接到新创建的数据库
		_ = db.Close()
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("InitDB: %w", err)
		}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("InitDB ping failed: %w", err)
	}

	// 3. 自动迁移表结构
	if err := AutoMigrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("InitDB: migrate: %w", err)
	}

	return db, nil
}

// AutoMigrate 自动检查并创建所需的表
func AutoMigrate(ctx context.Context, db *sql.DB) error {
	const tableSchema = `
CREATE TABLE IF NOT EXISTS %s (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    run_id CHAR(36) NOT NULL COMMENT 'Analysis Run ID',
    source_hash CHAR(66) NOT NULL COMMENT 'keccak256 of Source',
    path VARCHAR(1024) NOT NULL COMMENT 'Source Path',
    contract_name VARCHAR(255) NOT NULL COMMENT 'Contract Name',
    pragma_version VARCHAR(32) NULL COMMENT 'Pragma Solidity Version',
    function_count INT NOT NULL DEFAULT 0 COMMENT 'Function Count',
    total_pattern_gas BIGINT NOT NULL DEFAULT 0 COMMENT 'Heuristic Gas Estimate',
    total_gas_usage BIGINT NOT NULL DEFAULT 0 COMMENT 'Measured Gas Usage',
    total_savings BIGINT NOT NULL DEFAULT 0 COMMENT 'Potential Savings',
    report_json LONGTEXT NULL COMMENT 'Full Analysis (JSON)',
    created_at DATETIME NOT NULL COMMENT 'Creation Time',
    INDEX idx_source_hash (source_hash),
    INDEX idx_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci COMMENT='Gas Analysis History';
`
	if _, err := db.ExecContext(ctx, fmt.Sprintf(tableSchema, AnalysisTable)); err != nil {
		return fmt.Errorf("create table %s: %w", AnalysisTable, err)
	}
	return nil
}
