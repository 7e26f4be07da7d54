package dbutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/VectorBits/GasGuardian/src/internal/config"
)

type mysqlStore struct {
	db *sql.DB
}

var insertQuery = fmt.Sprintf(`
	INSERT INTO %s (run_id, source_hash, path, contract_name, pragma_version,
		function_count, total_pattern_gas, total_gas_usage, total_savings, report_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, config.AnalysisTable)

// execer *sql.DB 与 *sql.Tx 共有的写入方法
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *mysqlStore) SaveAnalysis(ctx context.Context, r *AnalysisRecord) error {
	return insertRecord(ctx, s.db, r)
}

func (s *mysqlStore) SaveAnalyses(ctx context.Context, records []*AnalysisRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, r := range records {
		if err := insertRecord(ctx, tx, r); err != nil {
			tx.Rollback()
			return fmt.Errorf("save %s: %w", r.Path, err)
		}
	}
	return tx.Commit()
}

func insertRecord(ctx context.Context, db execer, r *AnalysisRecord) error {
	res, err := db.ExecContext(ctx, insertQuery,
		r.RunID, r.SourceHash, r.Path, r.ContractName, r.PragmaVersion,
		r.FunctionCount, r.TotalPatternGas, r.TotalGasUsage, r.TotalSavings, r.ReportJSON, r.CreatedAt,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		r.ID = uint(id)
	}
	return nil
}

func (s *mysqlStore) RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
		SELECT id, run_id, source_hash, path, contract_name, COALESCE(pragma_version, ''),
			function_count, total_pattern_gas, total_gas_usage, total_savings, created_at
		FROM %s
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, config.AnalysisTable)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]AnalysisRecord, 0)
	for rows.Next() {
		var r AnalysisRecord
		if err := rows.Scan(&r.ID, &r.RunID, &r.SourceHash, &r.Path, &r.ContractName, &r.PragmaVersion,
			&r.FunctionCount, &r.TotalPatternGas, &r.TotalGasUsage, &r.TotalSavings, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *mysqlStore) Close() error {
	return s.db.Close()
}
