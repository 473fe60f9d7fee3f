package repository

import (
	"study_planner_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanRepository struct {
	DB *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{DB: db}
}

// Upsert 按日期插入或覆盖计划，指标行一并写入，单事务提交
func (r *PlanRepository) Upsert(plan *model.Plan, metrics map[string]float64) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"plan_json", "available_minutes", "total_planned_minutes", "num_tasks", "updated_at",
			}),
		}).Create(plan).Error; err != nil {
			return err
		}

		for name, value := range metrics {
			metric := &model.PlanMetric{Date: plan.Date, MetricName: name, MetricValue: value}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "date"}, {Name: "metric_name"}},
				DoUpdates: clause.AssignmentColumns([]string{"metric_value", "updated_at"}),
			}).Create(metric).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PlanRepository) FindByDate(date string) (*model.Plan, error) {
	var plan model.Plan
	err := r.DB.Where("date = ?", date).First(&plan).Error
	return &plan, err
}

// ListRange 双闭区间，按日期升序
func (r *PlanRepository) ListRange(startDate, endDate string) ([]model.Plan, error) {
	var plans []model.Plan
	err := r.DB.Where("date BETWEEN ? AND ?", startDate, endDate).
		Order("date ASC").
		Find(&plans).Error
	return plans, err
}

func (r *PlanRepository) MetricsByDate(date string) ([]model.PlanMetric, error) {
	var metrics []model.PlanMetric
	err := r.DB.Where("date = ?", date).Find(&metrics).Error
	return metrics, err
}

// DeleteByDate 删除某日期的计划及其反馈、指标。
// 物理删除，软删除行会被 date 唯一索引挡住后续的按日 upsert
func (r *PlanRepository) DeleteByDate(date string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("date = ?", date).Delete(&model.Plan{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("date = ?", date).Delete(&model.Feedback{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("date = ?", date).Delete(&model.PlanMetric{}).Error
	})
}
