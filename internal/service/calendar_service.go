package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"study_planner_backend/internal/model"
	"study_planner_backend/internal/repository"
	"study_planner_backend/internal/util"
	"study_planner_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CalendarService 计划与反馈的查询、删除和导出
type CalendarService struct {
	planRepo     *repository.PlanRepository
	feedbackRepo *repository.FeedbackRepository
	storage      StorageProvider
	logger       *zap.Logger
	now          func() time.Time
}

func NewCalendarService(planRepo *repository.PlanRepository, feedbackRepo *repository.FeedbackRepository, storage StorageProvider, logger *zap.Logger) *CalendarService {
	return &CalendarService{
		planRepo:     planRepo,
		feedbackRepo: feedbackRepo,
		storage:      storage,
		logger:       logger,
		now:          time.Now,
	}
}

// StoredPlan 已保存的计划，计划内容从 JSON 还原
type StoredPlan struct {
	Date                string             `json:"date"`
	Plan                json.RawMessage    `json:"plan"`
	AvailableMinutes    int                `json:"available_minutes"`
	TotalPlannedMinutes int                `json:"total_planned_minutes"`
	NumTasks            int                `json:"num_tasks"`
	Metrics             map[string]float64 `json:"metrics,omitempty"`
}

func toStoredPlan(p *model.Plan, metrics []model.PlanMetric) *StoredPlan {
	stored := &StoredPlan{
		Date:                p.Date,
		Plan:                json.RawMessage(p.PlanJSON),
		AvailableMinutes:    p.AvailableMinutes,
		TotalPlannedMinutes: p.TotalPlannedMinutes,
		NumTasks:            p.NumTasks,
	}
	if len(metrics) > 0 {
		stored.Metrics = make(map[string]float64, len(metrics))
		for _, m := range metrics {
			stored.Metrics[m.MetricName] = m.MetricValue
		}
	}
	return stored
}

func validateDate(field, date string) error {
	if _, err := model.ParseDate(date); err != nil {
		return util.Validationf(field, "%s must be in YYYY-MM-DD format", field)
	}
	return nil
}

func (s *CalendarService) GetPlan(date string) (*StoredPlan, error) {
	if err := validateDate("date", date); err != nil {
		return nil, err
	}

	plan, err := s.planRepo.FindByDate(date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}

	metrics, err := s.planRepo.MetricsByDate(date)
	if err != nil {
		return nil, err
	}
	return toStoredPlan(plan, metrics), nil
}

// PlanWithFeedback 计划及其反馈（如有）
type PlanWithFeedback struct {
	*StoredPlan
	Feedback *model.Feedback `json:"feedback,omitempty"`
}

// GetPlanWithFeedback 查询计划并附带当日反馈，反馈不存在时仅返回计划
func (s *CalendarService) GetPlanWithFeedback(date string) (*PlanWithFeedback, error) {
	plan, err := s.GetPlan(date)
	if err != nil {
		return nil, err
	}

	out := &PlanWithFeedback{StoredPlan: plan}
	feedback, err := s.feedbackRepo.FindByDate(date)
	if err == nil {
		out.Feedback = feedback
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return out, nil
}

// ListPlans 双闭区间查询，按日期升序
func (s *CalendarService) ListPlans(startDate, endDate string) ([]*StoredPlan, error) {
	if err := validateDate("start_date", startDate); err != nil {
		return nil, err
	}
	if err := validateDate("end_date", endDate); err != nil {
		return nil, err
	}
	if startDate > endDate {
		return nil, util.Validationf("start_date", "start_date must not be after end_date")
	}

	plans, err := s.planRepo.ListRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	out := make([]*StoredPlan, 0, len(plans))
	for i := range plans {
		out = append(out, toStoredPlan(&plans[i], nil))
	}
	return out, nil
}

func (s *CalendarService) DeletePlan(date string) error {
	if err := validateDate("date", date); err != nil {
		return err
	}
	if _, err := s.GetPlan(date); err != nil {
		return err
	}
	return s.planRepo.DeleteByDate(date)
}

// FeedbackInput 当日计划的执行反馈
type FeedbackInput struct {
	Date            string  `json:"date" binding:"required"`
	CompletionRatio float64 `json:"completion_ratio"`
	Tiredness       int     `json:"tiredness" binding:"required"`
	Notes           string  `json:"notes"`
}

// SubmitFeedback 提交反馈，同日重复提交覆盖旧值。反馈必须关联已存在的计划
func (s *CalendarService) SubmitFeedback(input *FeedbackInput) (*model.Feedback, error) {
	if err := validateDate("date", input.Date); err != nil {
		return nil, err
	}
	if input.CompletionRatio < 0 || input.CompletionRatio > 1 {
		return nil, util.Validationf("completion_ratio", "completion_ratio must be between 0 and 1")
	}
	if input.Tiredness < 1 || input.Tiredness > 5 {
		return nil, util.Validationf("tiredness", "tiredness must be between 1 and 5")
	}

	if _, err := s.planRepo.FindByDate(input.Date); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPlanNotFound
		}
		return nil, err
	}

	feedback := &model.Feedback{
		Date:            input.Date,
		CompletionRatio: input.CompletionRatio,
		Tiredness:       input.Tiredness,
		Notes:           input.Notes,
	}
	if err := s.feedbackRepo.Upsert(feedback); err != nil {
		return nil, err
	}

	monitoring.FeedbackSubmitted.Inc()
	return feedback, nil
}

func (s *CalendarService) GetFeedback(date string) (*model.Feedback, error) {
	if err := validateDate("date", date); err != nil {
		return nil, err
	}

	feedback, err := s.feedbackRepo.FindByDate(date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrFeedbackNotFound
	}
	return feedback, err
}

func (s *CalendarService) ListFeedback(startDate, endDate string) ([]model.Feedback, error) {
	if err := validateDate("start_date", startDate); err != nil {
		return nil, err
	}
	if err := validateDate("end_date", endDate); err != nil {
		return nil, err
	}
	return s.feedbackRepo.ListRange(startDate, endDate)
}

// ExportRange 导出区间内的计划与反馈为 JSON 文件，返回存储位置
func (s *CalendarService) ExportRange(ctx context.Context, startDate, endDate string) (string, error) {
	plans, err := s.ListPlans(startDate, endDate)
	if err != nil {
		return "", err
	}
	feedback, err := s.ListFeedback(startDate, endDate)
	if err != nil {
		return "", err
	}

	payload := map[string]interface{}{
		"start_date":  startDate,
		"end_date":    endDate,
		"exported_at": s.now().Format(time.RFC3339),
		"plans":       plans,
		"feedback":    feedback,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("study_plans_%s_%s.json", startDate, endDate)
	location, err := s.storage.Save(ctx, name, data, "application/json")
	if err != nil {
		return "", err
	}

	s.logger.Info("计划导出完成",
		zap.String("location", location),
		zap.Int("plans", len(plans)),
		zap.Int("feedback", len(feedback)))
	return location, nil
}
