package service

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"study_planner_backend/internal/ml"
	"study_planner_backend/internal/model"
	"study_planner_backend/internal/repository"
	"study_planner_backend/internal/util"
	"study_planner_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// PlannerService 学习计划生成管线：
// 校验 -> 特征 -> 三个模型 -> 时间缩放 -> 摘要 -> 截止任务上下文 -> 持久化
type PlannerService struct {
	models      *ml.Models
	planRepo    *repository.PlanRepository
	sessionRepo *repository.StudySessionRepository
	deadlineSvc *DeadlineService
	logger      *zap.Logger
	now         func() time.Time
}

func NewPlannerService(models *ml.Models, planRepo *repository.PlanRepository, sessionRepo *repository.StudySessionRepository, deadlineSvc *DeadlineService, logger *zap.Logger) *PlannerService {
	return &PlannerService{
		models:      models,
		planRepo:    planRepo,
		sessionRepo: sessionRepo,
		deadlineSvc: deadlineSvc,
		logger:      logger,
		now:         time.Now,
	}
}

// GeneratePlanInput 计划生成请求
type GeneratePlanInput struct {
	Date             string   `json:"date"`
	Tasks            []string `json:"tasks" binding:"required"`
	TimeSpent        []int    `json:"time_spent" binding:"required"`
	DifficultyRating []int    `json:"difficulty_rating" binding:"required"`
	EnergyLevel      int      `json:"energy_level" binding:"required"`
	AvailableMinutes int      `json:"available_minutes" binding:"required"`
}

// PlannedTask 计划中的单个任务
type PlannedTask struct {
	Task    string  `json:"task"`
	Minutes int     `json:"minutes"`
	Score   float64 `json:"score"`
}

// DeadlineContext 计划附带的截止任务上下文，尽力而为，失败不影响计划本身
type DeadlineContext struct {
	Urgent          []UrgentDeadline `json:"urgent,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Conflicts       []Conflict       `json:"conflicts,omitempty"`
}

// GeneratedPlan 计划生成结果
type GeneratedPlan struct {
	Date                 string           `json:"date"`
	Tasks                []PlannedTask    `json:"tasks"`
	TotalPlannedMinutes  int              `json:"total_planned_minutes"`
	AvailableMinutes     int              `json:"available_minutes"`
	DifficultyAdjustment int              `json:"difficulty_adjustment"`
	Summary              string           `json:"summary"`
	Deadlines            *DeadlineContext `json:"deadlines,omitempty"`
}

func (s *PlannerService) validate(input *GeneratePlanInput) error {
	n := len(input.Tasks)
	if n == 0 {
		return util.Validationf("tasks", "tasks must not be empty")
	}
	if len(input.TimeSpent) != n {
		return util.Validationf("time_spent", "time_spent must have the same length as tasks (%d)", n)
	}
	if len(input.DifficultyRating) != n {
		return util.Validationf("difficulty_rating", "difficulty_rating must have the same length as tasks (%d)", n)
	}
	if input.EnergyLevel < 1 || input.EnergyLevel > 5 {
		return util.Validationf("energy_level", "energy_level must be between 1 and 5")
	}
	if input.AvailableMinutes <= 0 {
		return util.Validationf("available_minutes", "available_minutes must be positive")
	}
	for i, m := range input.TimeSpent {
		if m < 0 {
			return util.Validationf("time_spent", "time_spent[%d] must not be negative", i)
		}
	}
	for i, d := range input.DifficultyRating {
		if d < 1 || d > 5 {
			return util.Validationf("difficulty_rating", "difficulty_rating[%d] must be between 1 and 5", i)
		}
	}
	if input.Date != "" {
		if _, err := model.ParseDate(input.Date); err != nil {
			return util.Validationf("date", "date must be in YYYY-MM-DD format")
		}
	}
	return nil
}

// GeneratePlan 生成某日的学习计划并持久化
func (s *PlannerService) GeneratePlan(input *GeneratePlanInput) (*GeneratedPlan, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	if s.models == nil {
		return nil, util.ErrModelsNotTrained
	}

	date := input.Date
	if date == "" {
		date = truncateToDay(s.now()).Format(model.DateLayout)
	}

	planInput := ml.PlanInput{
		Tasks:            input.Tasks,
		TimeSpent:        input.TimeSpent,
		DifficultyRating: input.DifficultyRating,
		EnergyLevel:      input.EnergyLevel,
		AvailableMinutes: input.AvailableMinutes,
	}

	rows := make([]ml.Features, len(input.Tasks))
	for i := range input.Tasks {
		rows[i] = ml.BuildTaskFeatures(planInput, i)
	}

	scores, err := s.models.Ranker.PredictRanking(rows)
	if err != nil {
		return nil, s.wrapModelError(err)
	}
	minutes, err := s.models.Time.PredictTime(rows)
	if err != nil {
		return nil, s.wrapModelError(err)
	}

	aggregate := ml.BuildFeatures(planInput)
	adjustment, err := s.models.Difficulty.PredictAdjustment(aggregate)
	if err != nil {
		return nil, s.wrapModelError(err)
	}

	tasks := assemblePlan(input.Tasks, scores, minutes, input.AvailableMinutes)

	total := 0
	for _, t := range tasks {
		total += t.Minutes
	}

	plan := &GeneratedPlan{
		Date:                 date,
		Tasks:                tasks,
		TotalPlannedMinutes:  total,
		AvailableMinutes:     input.AvailableMinutes,
		DifficultyAdjustment: adjustment,
	}
	plan.Summary = buildSummary(tasks, adjustment, aggregate.FatigueScore)

	s.enrichWithDeadlines(plan, input.AvailableMinutes)

	if err := s.persist(plan, input, aggregate, adjustment); err != nil {
		return nil, err
	}

	monitoring.PlansGenerated.Inc()
	s.logger.Info("计划已生成",
		zap.String("date", date),
		zap.Int("tasks", len(tasks)),
		zap.Int("planned_minutes", total))
	return plan, nil
}

func (s *PlannerService) wrapModelError(err error) error {
	if err == ml.ErrNotTrained {
		return util.ErrModelsNotTrained
	}
	return err
}

// assemblePlan 按得分降序排列任务并分配时长。
// 预测总时长按比例缩放到可用时间（双向），缩放结果再裁剪回 [30,120]，
// 裁剪生效时合计可能偏离可用时间，调用方按计划值为准
func assemblePlan(names []string, scores, minutes []float64, availableMinutes int) []PlannedTask {
	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	var predictedTotal float64
	for _, m := range minutes {
		predictedTotal += m
	}
	scale := 1.0
	if predictedTotal > 0 {
		scale = float64(availableMinutes) / predictedTotal
	}

	tasks := make([]PlannedTask, 0, len(order))
	for _, idx := range order {
		m := minutes[idx] * scale
		m = math.Min(math.Max(m, ml.MinTaskMinutes), ml.MaxTaskMinutes)
		tasks = append(tasks, PlannedTask{
			Task:    names[idx],
			Minutes: int(math.Round(m)),
			Score:   scores[idx],
		})
	}
	return tasks
}

func buildSummary(tasks []PlannedTask, adjustment int, fatigue float64) string {
	var b strings.Builder

	top := tasks
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, 0, len(top))
	for _, t := range top {
		parts = append(parts, fmt.Sprintf("%s (%d min)", t.Task, t.Minutes))
	}
	b.WriteString("Today's focus: ")
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(". ")

	switch {
	case adjustment > 0:
		b.WriteString("You are ready for more challenging material. ")
	case adjustment < 0:
		b.WriteString("Consider easier material to rebuild momentum. ")
	}

	if fatigue >= 3 {
		b.WriteString("Energy is low, take short breaks between tasks.")
	} else if fatigue < 1 {
		b.WriteString("Good energy today, make the most of it.")
	}
	return strings.TrimSpace(b.String())
}

// enrichWithDeadlines 附加截止任务上下文。任何一步失败只记日志，不影响计划
func (s *PlannerService) enrichWithDeadlines(plan *GeneratedPlan, availableMinutes int) {
	if s.deadlineSvc == nil {
		return
	}

	ctx := &DeadlineContext{}
	urgent, err := s.deadlineSvc.GetUrgentDeadlines(3)
	if err != nil {
		s.logger.Warn("获取紧急截止任务失败", zap.Error(err))
	} else {
		ctx.Urgent = urgent
	}

	recs, err := s.deadlineSvc.GetRecommendations(availableMinutes)
	if err != nil {
		s.logger.Warn("获取截止任务推荐失败", zap.Error(err))
	} else {
		ctx.Recommendations = recs
	}

	conflicts, err := s.deadlineSvc.DetectConflicts(defaultUrgentDaysAhead)
	if err != nil {
		s.logger.Warn("检测截止冲突失败", zap.Error(err))
	} else {
		ctx.Conflicts = conflicts
	}

	if len(ctx.Urgent) == 0 && len(ctx.Recommendations) == 0 && len(ctx.Conflicts) == 0 {
		return
	}
	plan.Deadlines = ctx

	// 摘要前缀取推荐列表（已按紧迫度排序并过滤过可用时间）的前三项
	if len(ctx.Recommendations) > 0 {
		top := ctx.Recommendations
		if len(top) > 3 {
			top = top[:3]
		}
		names := make([]string, 0, len(top))
		for _, r := range top {
			names = append(names, r.Title)
		}
		plan.Summary = fmt.Sprintf("Focus on upcoming deadlines: %s. %s",
			strings.Join(names, ", "), plan.Summary)
	}
}

func (s *PlannerService) persist(plan *GeneratedPlan, input *GeneratePlanInput, aggregate ml.Features, adjustment int) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return err
	}

	record := &model.Plan{
		Date:                plan.Date,
		PlanJSON:            string(payload),
		AvailableMinutes:    plan.AvailableMinutes,
		TotalPlannedMinutes: plan.TotalPlannedMinutes,
		NumTasks:            len(plan.Tasks),
	}

	totalSpent := 0
	for _, m := range input.TimeSpent {
		totalSpent += m
	}
	metrics := map[string]float64{
		"energy_level":          float64(input.EnergyLevel),
		"fatigue_score":         aggregate.FatigueScore,
		"productivity_score":    aggregate.ProductivityScore,
		"time_pressure":         float64(totalSpent) / float64(input.AvailableMinutes),
		"difficulty_adjustment": float64(adjustment),
	}

	if err := s.planRepo.Upsert(record, metrics); err != nil {
		return err
	}

	// 会话日志与计划分开保存，统计接口按区间聚合
	session := &model.StudySession{
		Date:           plan.Date,
		Tasks:          strings.Join(input.Tasks, ","),
		EnergyLevel:    input.EnergyLevel,
		CompletionRate: aggregate.CompletionRatio,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		s.logger.Warn("保存学习会话失败", zap.Error(err))
	}
	return nil
}
