package database

import (
	"fmt"
	"log"
	"time"

	"study_planner_backend/internal/config"
	"study_planner_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SchemaVersion 当前数据库结构版本
const SchemaVersion = 1

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		dialector = mysql.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")
	return db, nil
}

// Migrate 建表并写入结构版本标记，测试库也复用同一套迁移
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.SchemaVersion{},
		&model.Plan{},
		&model.PlanMetric{},
		&model.Feedback{},
		&model.Deadline{},
		&model.TaskHistory{},
		&model.StudySession{},
		&model.User{},
		&model.UserPreference{},
		&model.TimeTracking{},
		&model.UserAnalytics{},
	)
	if err != nil {
		return err
	}

	// 结构版本标记，目前仅 version=1
	var current int
	db.Model(&model.SchemaVersion{}).Select("COALESCE(MAX(version), 0)").Scan(&current)
	if current < SchemaVersion {
		if err := db.Create(&model.SchemaVersion{
			Version:       SchemaVersion,
			MigrationDate: time.Now().Format(time.RFC3339),
			Description:   "Initial schema creation",
		}).Error; err != nil {
			return err
		}
	}

	return nil
}
