package repository

import (
	"study_planner_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FeedbackRepository struct {
	DB *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{DB: db}
}

// Upsert 按日期插入或覆盖反馈
func (r *FeedbackRepository) Upsert(feedback *model.Feedback) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"completion_ratio", "tiredness", "notes", "updated_at",
		}),
	}).Create(feedback).Error
}

func (r *FeedbackRepository) FindByDate(date string) (*model.Feedback, error) {
	var feedback model.Feedback
	err := r.DB.Where("date = ?", date).First(&feedback).Error
	return &feedback, err
}

// ListRange 双闭区间，按日期升序
func (r *FeedbackRepository) ListRange(startDate, endDate string) ([]model.Feedback, error) {
	var feedback []model.Feedback
	err := r.DB.Where("date BETWEEN ? AND ?", startDate, endDate).
		Order("date ASC").
		Find(&feedback).Error
	return feedback, err
}
