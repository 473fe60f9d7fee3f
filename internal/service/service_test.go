package service

import (
	"fmt"
	"testing"
	"time"

	"study_planner_backend/internal/repository"
	"study_planner_backend/pkg/database"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func newTestDeadlineService(t *testing.T, db *gorm.DB, now time.Time) *DeadlineService {
	t.Helper()
	svc := NewDeadlineService(
		repository.NewDeadlineRepository(db),
		repository.NewTaskHistoryRepository(db),
		repository.NewStudySessionRepository(db),
		zap.NewNop(),
	)
	svc.now = func() time.Time { return now }
	return svc
}
