package logic

import (
	"fmt"
	"strings"
	"testing"

	"github.com/barakahchain/charity-platform/internal/database"
	"github.com/barakahchain/charity-platform/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func seedProject(t *testing.T, db *gorm.DB, contractAddress string) *model.ProjectModel {
	t.Helper()

	charity := model.UserModel{Name: "Charity", Email: contractAddress + "@onchain.charity", Role: model.UserRoleCharity}
	require.NoError(t, db.Create(&charity).Error)

	project := model.ProjectModel{
		Title:           "Test Project",
		CharityId:       charity.Id,
		TotalAmount:     10,
		Status:          model.ProjectStatusActive,
		ContractAddress: contractAddress,
	}
	require.NoError(t, db.Create(&project).Error)
	return &project
}

func seedMilestone(t *testing.T, db *gorm.DB, projectId int64, orderIndex int, status model.MilestoneStatus) *model.MilestoneModel {
	t.Helper()

	milestone := model.MilestoneModel{
		ProjectId:   projectId,
		OrderIndex:  orderIndex,
		Description: fmt.Sprintf("Milestone %d", orderIndex+1),
		Amount:      3,
		Status:      status,
	}
	require.NoError(t, db.Create(&milestone).Error)
	return &milestone
}
