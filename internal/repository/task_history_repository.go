package repository

import (
	"study_planner_backend/internal/model"

	"gorm.io/gorm"
)

type TaskHistoryRepository struct {
	DB *gorm.DB
}

func NewTaskHistoryRepository(db *gorm.DB) *TaskHistoryRepository {
	return &TaskHistoryRepository{DB: db}
}

func (r *TaskHistoryRepository) Create(history *model.TaskHistory) error {
	return r.DB.Create(history).Error
}

func (r *TaskHistoryRepository) FindByDeadline(deadlineID uint) ([]model.TaskHistory, error) {
	var records []model.TaskHistory
	err := r.DB.Where("deadline_id = ?", deadlineID).
		Order("completed_date ASC").
		Find(&records).Error
	return records, err
}

// TaskStats 区间内任务完成统计
type TaskStats struct {
	TotalTasks    int64
	TotalTime     int64
	AvgDifficulty float64
}

func (r *TaskHistoryRepository) StatsRange(startDate, endDate string) (*TaskStats, error) {
	var stats TaskStats
	err := r.DB.Model(&model.TaskHistory{}).
		Select("COUNT(*) as total_tasks, COALESCE(SUM(time_spent), 0) as total_time, COALESCE(AVG(difficulty_actual), 0) as avg_difficulty").
		Where("completed_date BETWEEN ? AND ?", startDate, endDate).
		Scan(&stats).Error
	return &stats, err
}
