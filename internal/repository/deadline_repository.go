package repository

import (
	"study_planner_backend/internal/model"

	"gorm.io/gorm"
)

type DeadlineRepository struct {
	DB *gorm.DB
}

func NewDeadlineRepository(db *gorm.DB) *DeadlineRepository {
	return &DeadlineRepository{DB: db}
}

func (r *DeadlineRepository) Create(deadline *model.Deadline) error {
	return r.DB.Create(deadline).Error
}

func (r *DeadlineRepository) FindByID(id uint) (*model.Deadline, error) {
	var deadline model.Deadline
	err := r.DB.First(&deadline, id).Error
	return &deadline, err
}

// List 可按状态过滤，按创建时间降序
func (r *DeadlineRepository) List(status model.DeadlineStatus) ([]model.Deadline, error) {
	var deadlines []model.Deadline
	query := r.DB.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&deadlines).Error
	return deadlines, err
}

// ListActive 所有未完成的截止任务
func (r *DeadlineRepository) ListActive() ([]model.Deadline, error) {
	var deadlines []model.Deadline
	err := r.DB.Where("status <> ?", model.DeadlineCompleted).
		Order("due_date ASC").
		Find(&deadlines).Error
	return deadlines, err
}

func (r *DeadlineRepository) Update(deadline *model.Deadline) error {
	return r.DB.Save(deadline).Error
}

func (r *DeadlineRepository) UpdateStatus(id uint, status model.DeadlineStatus) error {
	result := r.DB.Model(&model.Deadline{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 删除截止任务并级联删除关联的任务历史
func (r *DeadlineRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deadline_id = ?", id).Delete(&model.TaskHistory{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&model.Deadline{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// StatusCounts 按状态统计数量
func (r *DeadlineRepository) StatusCounts() (map[model.DeadlineStatus]int64, error) {
	type row struct {
		Status model.DeadlineStatus
		Count  int64
	}
	var rows []row
	err := r.DB.Model(&model.Deadline{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.DeadlineStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}
