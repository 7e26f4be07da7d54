package dbutil

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

func newGormStore(ctx context.Context, db *gorm.DB) (*gormStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&AnalysisRecord{}); err != nil {
		closeGorm(db)
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &gormStore{db: db}, nil
}

func (s *gormStore) SaveAnalysis(ctx context.Context, record *AnalysisRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *gormStore) SaveAnalyses(ctx context.Context, records []*AnalysisRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("save %s: %w", record.Path, err)
			}
		}
		return nil
	})
}

func (s *gormStore) RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []AnalysisRecord
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (s *gormStore) Close() error {
	return closeGorm(s.db)
}

func closeGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
