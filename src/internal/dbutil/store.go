package dbutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/VectorBits/GasGuardian/src/internal/config"
	"github.com/VectorBits/GasGuardian/src/internal/static_analyzer"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

// AnalysisRecord 一次分析中单个合约的历史记录
type AnalysisRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	RunID           string    `gorm:"size:36;not null;index" json:"runId"`
	SourceHash      string    `gorm:"size:66;not null;index" json:"sourceHash"`
	Path            string    `gorm:"size:1024;not null" json:"path"`
	ContractName    string    `gorm:"size:255;not null" json:"contractName"`
	PragmaVersion   string    `gorm:"size:32" json:"pragmaVersion"`
	FunctionCount   int       `gorm:"not null;default:0" json:"functionCount"`
	TotalPatternGas int64     `gorm:"not null;default:0" json:"totalPatternGas"`
	TotalGasUsage   int64     `gorm:"not null;default:0" json:"totalGasUsage"`
	TotalSavings    int64     `gorm:"not null;default:0" json:"totalSavings"`
	ReportJSON      string    `gorm:"type:text" json:"-"`
	CreatedAt       time.Time `gorm:"not null;index" json:"createdAt"`
}

func (AnalysisRecord) TableName() string {
	return config.AnalysisTable
}

// Store 分析历史持久化
type Store interface {
	SaveAnalysis(ctx context.Context, record *AnalysisRecord) error
	// SaveAnalyses 在一个事务中写入多条记录，任一失败则全部回滚
	SaveAnalyses(ctx context.Context, records []*AnalysisRecord) error
	RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error)
	Close() error
}

// Open 按 database.driver 选择后端：sqlite | postgres | mysql | none
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	app := &config.AppConfig{Database: cfg}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite", "sqlite3":
		path := cfg.Path
		if path == "" {
			path = config.DefaultScanConfiguration().Database.Path
		}
		db, err := config.NewSQLiteDB(path)
		if err != nil {
			return nil, err
		}
		return newGormStore(ctx, db)

	case "postgres", "postgresql":
		db, err := config.NewPostgresDB(app)
		if err != nil {
			return nil, err
		}
		return newGormStore(ctx, db)

	case "mysql":
		db, err := config.InitDB(ctx, app)
		if err != nil {
			return nil, err
		}
		return &mysqlStore{db: db}, nil

	case "none", "off":
		return noopStore{}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}
}

// NewRecords 将批量分析结果拆分为每个合约一条记录，共享同一个 RunID
func NewRecords(result *static_analyzer.BatchResult) ([]*AnalysisRecord, error) {
	if result == nil {
		return nil, nil
	}

	runID := uuid.NewString()
	createdAt := result.Timestamp.UTC()
	if result.Timestamp.IsZero() {
		createdAt = time.Now().UTC()
	}

	records := make([]*AnalysisRecord, 0, len(result.Contracts))
	for _, contract := range result.Contracts {
		if contract == nil {
			continue
		}
		data, err := json.Marshal(contract)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", contract.Path, err)
		}
		records = append(records, &AnalysisRecord{
			RunID:           runID,
			SourceHash:      contract.SourceHash,
			Path:            contract.Path,
			ContractName:    contract.Name,
			PragmaVersion:   contract.PragmaVersion,
			FunctionCount:   len(contract.Functions),
			TotalPatternGas: int64(contract.TotalPatternGas),
			TotalGasUsage:   int64(contract.TotalGasUsage),
			TotalSavings:    int64(contract.TotalPotentialSavings),
			ReportJSON:      string(data),
			CreatedAt:       createdAt,
		})
	}
	return records, nil
}

// SaveBatch 保存一次批量分析，返回 RunID
func SaveBatch(ctx context.Context, store Store, result *static_analyzer.BatchResult) (string, error) {
	records, err := NewRecords(result)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}
	if err := store.SaveAnalyses(ctx, records); err != nil {
		return "", fmt.Errorf("save run %s: %w", records[0].RunID, err)
	}
	return records[0].RunID, nil
}

type noopStore struct{}

func (noopStore) SaveAnalysis(context.Context, *AnalysisRecord) error { return nil }

func (noopStore) SaveAnalyses(context.Context, []*AnalysisRecord) error { return nil }

func (noopStore) RecentAnalyses(context.Context, int) ([]AnalysisRecord, error) { return nil, nil }

func (noopStore) Close() error { return nil }
