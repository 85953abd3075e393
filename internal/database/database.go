package database

import (
	"fmt"

	"github.com/barakahchain/charity-platform/internal/config"
	"github.com/barakahchain/charity-platform/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	// TranslateError 让唯一约束冲突以 gorm.ErrDuplicatedKey 暴露，
	// 同步引擎的身份解析和去重重试依赖这个判断
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// Migrate 自动迁移，唯一索引是同步引擎正确性契约的一部分
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.UserModel{},
		&model.WalletModel{},
		&model.ProjectModel{},
		&model.MilestoneModel{},
		&model.DonationModel{},
	)
}
