package repository

import (
	"study_planner_backend/internal/model"

	"gorm.io/gorm"
)

type StudySessionRepository struct {
	DB *gorm.DB
}

func NewStudySessionRepository(db *gorm.DB) *StudySessionRepository {
	return &StudySessionRepository{DB: db}
}

func (r *StudySessionRepository) Create(session *model.StudySession) error {
	return r.DB.Create(session).Error
}

// SessionStats 区间内学习会话统计
type SessionStats struct {
	TotalSessions     int64
	AvgEnergy         float64
	AvgCompletionRate float64
}

func (r *StudySessionRepository) StatsRange(startDate, endDate string) (*SessionStats, error) {
	var stats SessionStats
	err := r.DB.Model(&model.StudySession{}).
		Select("COUNT(*) as total_sessions, COALESCE(AVG(energy_level), 0) as avg_energy, COALESCE(AVG(completion_rate), 0) as avg_completion_rate").
		Where("date BETWEEN ? AND ?", startDate, endDate).
		Scan(&stats).Error
	return &stats, err
}
