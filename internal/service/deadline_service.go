package service

import (
	"errors"
	"math"
	"sort"
	"time"

	"study_planner_backend/internal/model"
	"study_planner_backend/internal/repository"
	"study_planner_backend/internal/util"
	"study_planner_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// 紧迫度公式中的满负荷基准：一天 8 小时
	fullDayMinutes = 480

	// 推荐的最小可用时间片（分钟）
	minRecommendationMinutes = 30

	defaultUrgentDaysAhead   = 7
	defaultConflictDaysAhead = 30
)

// DeadlineService 截止任务的紧迫度、推荐与冲突检测
type DeadlineService struct {
	deadlineRepo *repository.DeadlineRepository
	historyRepo  *repository.TaskHistoryRepository
	sessionRepo  *repository.StudySessionRepository
	logger       *zap.Logger
	now          func() time.Time
}

func NewDeadlineService(deadlineRepo *repository.DeadlineRepository, historyRepo *repository.TaskHistoryRepository, sessionRepo *repository.StudySessionRepository, logger *zap.Logger) *DeadlineService {
	return &DeadlineService{
		deadlineRepo: deadlineRepo,
		historyRepo:  historyRepo,
		sessionRepo:  sessionRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateDeadlineInput 创建截止任务的入参
type CreateDeadlineInput struct {
	Title         string `json:"title" binding:"required"`
	Type          string `json:"type" binding:"required"`
	DueDate       string `json:"due_date" binding:"required"`
	EstimatedTime int    `json:"estimated_time" binding:"required"`
	Description   string `json:"description"`
}

func (s *DeadlineService) CreateDeadline(input *CreateDeadlineInput) (*model.Deadline, error) {
	if _, err := model.ParseDeadlineType(input.Type); err != nil {
		return nil, util.Validationf("type", "unknown deadline type: %s", input.Type)
	}
	if _, err := model.ParseDate(input.DueDate); err != nil {
		return nil, util.Validationf("due_date", "due_date must be in YYYY-MM-DD format")
	}
	if input.EstimatedTime <= 0 {
		return nil, util.Validationf("estimated_time", "estimated_time must be positive")
	}

	deadline := &model.Deadline{
		Title:         input.Title,
		Type:          model.DeadlineType(input.Type),
		DueDate:       input.DueDate,
		EstimatedTime: input.EstimatedTime,
		Description:   input.Description,
		Status:        model.DeadlineNotStarted,
	}
	if err := s.deadlineRepo.Create(deadline); err != nil {
		return nil, err
	}
	return deadline, nil
}

func (s *DeadlineService) GetDeadline(id uint) (*model.Deadline, error) {
	deadline, err := s.deadlineRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrDeadlineNotFound
	}
	return deadline, err
}

// ListDeadlines 截止任务列表，可按状态过滤。
// 每项标注紧迫度与剩余天数，按紧迫度降序，同分保持入库顺序
func (s *DeadlineService) ListDeadlines(status string) ([]UrgentDeadline, error) {
	var filter model.DeadlineStatus
	if status != "" {
		parsed, err := model.ParseDeadlineStatus(status)
		if err != nil {
			return nil, util.Validationf("status", "unknown status: %s", status)
		}
		filter = parsed
	}
	deadlines, err := s.deadlineRepo.List(filter)
	if err != nil {
		return nil, err
	}

	today := truncateToDay(s.now())
	annotated := make([]UrgentDeadline, 0, len(deadlines))
	for _, d := range deadlines {
		item := UrgentDeadline{Deadline: d, Urgency: s.CalculateUrgency(&d, today)}
		if due, err := model.ParseDate(d.DueDate); err == nil {
			item.DaysUntil = daysBetween(today, due)
		}
		annotated = append(annotated, item)
	}
	sort.SliceStable(annotated, func(i, j int) bool {
		return annotated[i].Urgency > annotated[j].Urgency
	})
	return annotated, nil
}

func (s *DeadlineService) UpdateStatus(id uint, status string) (*model.Deadline, error) {
	parsed, err := model.ParseDeadlineStatus(status)
	if err != nil {
		return nil, util.Validationf("status", "unknown status: %s", status)
	}
	if err := s.deadlineRepo.UpdateStatus(id, parsed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrDeadlineNotFound
		}
		return nil, err
	}
	return s.deadlineRepo.FindByID(id)
}

func (s *DeadlineService) DeleteDeadline(id uint) error {
	err := s.deadlineRepo.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrDeadlineNotFound
	}
	return err
}

// CalculateUrgency 计算单个截止任务的紧迫度，取值 [0,1]。
// 已过期恒为 1.0；日期无法解析时降级为 0.5 而不中断调用方
func (s *DeadlineService) CalculateUrgency(deadline *model.Deadline, today time.Time) float64 {
	due, err := model.ParseDate(deadline.DueDate)
	if err != nil {
		s.logger.Warn("无法解析截止日期，使用默认紧迫度",
			zap.Uint("deadline_id", deadline.ID),
			zap.String("due_date", deadline.DueDate))
		return 0.5
	}

	daysUntil := daysBetween(today, due)
	if daysUntil < 0 {
		return 1.0
	}

	timeFactor := 1.0 / float64(daysUntil+1)
	workloadFactor := math.Min(1.0, float64(deadline.EstimatedTime)/fullDayMinutes)
	urgency := 0.7*timeFactor + 0.3*workloadFactor
	return clampFloat(urgency, 0, 1)
}

// UrgentDeadline 带紧迫度标注的截止任务
type UrgentDeadline struct {
	model.Deadline
	Urgency   float64 `json:"urgency"`
	DaysUntil int     `json:"days_until"`
}

// GetUrgentDeadlines 未来 daysAhead 天内到期的未完成任务，按紧迫度降序。
// daysAhead <= 0 时取默认值 7
func (s *DeadlineService) GetUrgentDeadlines(daysAhead int) ([]UrgentDeadline, error) {
	if daysAhead <= 0 {
		daysAhead = defaultUrgentDaysAhead
	}
	today := truncateToDay(s.now())
	cutoff := today.AddDate(0, 0, daysAhead)

	deadlines, err := s.deadlineRepo.ListActive()
	if err != nil {
		return nil, err
	}

	urgent := make([]UrgentDeadline, 0, len(deadlines))
	for _, d := range deadlines {
		due, err := model.ParseDate(d.DueDate)
		if err != nil {
			continue
		}
		if due.Before(today) || due.After(cutoff) {
			continue
		}
		urgent = append(urgent, UrgentDeadline{
			Deadline:  d,
			Urgency:   s.CalculateUrgency(&d, today),
			DaysUntil: daysBetween(today, due),
		})
	}

	sort.SliceStable(urgent, func(i, j int) bool {
		return urgent[i].Urgency > urgent[j].Urgency
	})
	return urgent, nil
}

// Recommendation 针对可用时间的任务安排建议
type Recommendation struct {
	DeadlineID         uint    `json:"deadline_id"`
	Title              string  `json:"title"`
	RecommendedMinutes int     `json:"recommended_minutes"`
	Urgency            float64 `json:"urgency"`
	Partial            bool    `json:"partial"`
}

// GetRecommendations 贪心分配可用时间：按紧迫度从高到低依次塞入，
// 遇到第一个放不下的任务时，若剩余时间不少于 30 分钟则给出部分安排，
// 之后停止分配
func (s *DeadlineService) GetRecommendations(availableMinutes int) ([]Recommendation, error) {
	if availableMinutes <= 0 {
		return nil, util.Validationf("available_minutes", "available_minutes must be positive")
	}

	urgent, err := s.GetUrgentDeadlines(defaultUrgentDaysAhead)
	if err != nil {
		return nil, err
	}

	recommendations := make([]Recommendation, 0, len(urgent))
	remaining := availableMinutes
	for _, u := range urgent {
		if u.EstimatedTime <= remaining {
			recommendations = append(recommendations, Recommendation{
				DeadlineID:         u.ID,
				Title:              u.Title,
				RecommendedMinutes: u.EstimatedTime,
				Urgency:            u.Urgency,
			})
			remaining -= u.EstimatedTime
			continue
		}
		if remaining >= minRecommendationMinutes {
			recommendations = append(recommendations, Recommendation{
				DeadlineID:         u.ID,
				Title:              u.Title,
				RecommendedMinutes: remaining,
				Urgency:            u.Urgency,
				Partial:            true,
			})
		}
		break
	}
	return recommendations, nil
}

// Conflict 同一天到期的任务过多或总工作量超过一天负荷
type Conflict struct {
	Date               string   `json:"date"`
	Deadlines          []string `json:"deadlines"`
	TotalEstimatedTime int      `json:"total_estimated_time"`
	Severity           string   `json:"severity"`
}

// DetectConflicts 检测未来 daysAhead 天内的截止冲突。
// 同日任务数大于 1 或总预估时间超过 480 分钟即视为冲突，
// 任务数大于 2 时级别为 high，否则 medium
func (s *DeadlineService) DetectConflicts(daysAhead int) ([]Conflict, error) {
	if daysAhead <= 0 {
		daysAhead = defaultConflictDaysAhead
	}
	today := truncateToDay(s.now())
	cutoff := today.AddDate(0, 0, daysAhead)

	deadlines, err := s.deadlineRepo.ListActive()
	if err != nil {
		return nil, err
	}

	type group struct {
		titles []string
		total  int
	}
	groups := make(map[string]*group)
	var dates []string
	for _, d := range deadlines {
		due, err := model.ParseDate(d.DueDate)
		if err != nil {
			continue
		}
		if due.Before(today) || due.After(cutoff) {
			continue
		}
		key := due.Format(model.DateLayout)
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			dates = append(dates, key)
		}
		g.titles = append(g.titles, d.Title)
		g.total += d.EstimatedTime
	}
	sort.Strings(dates)

	var conflicts []Conflict
	for _, date := range dates {
		g := groups[date]
		if len(g.titles) <= 1 && g.total <= fullDayMinutes {
			continue
		}
		severity := "medium"
		if len(g.titles) > 2 {
			severity = "high"
		}
		conflicts = append(conflicts, Conflict{
			Date:               date,
			Deadlines:          g.titles,
			TotalEstimatedTime: g.total,
			Severity:           severity,
		})
		monitoring.ConflictsDetected.Inc()
	}
	return conflicts, nil
}

// Progress 截止任务的完成进度
type Progress struct {
	DeadlineID      uint    `json:"deadline_id"`
	ProgressPercent float64 `json:"progress_percent"`
	TotalTimeSpent  int     `json:"total_time_spent"`
	AvgDifficulty   float64 `json:"avg_difficulty"`
	SessionsCount   int     `json:"sessions_count"`
}

// GetProgress 有任何关联任务记录即视为 100%，否则 0%
func (s *DeadlineService) GetProgress(id uint) (*Progress, error) {
	if _, err := s.GetDeadline(id); err != nil {
		return nil, err
	}

	records, err := s.historyRepo.FindByDeadline(id)
	if err != nil {
		return nil, err
	}

	progress := &Progress{DeadlineID: id, SessionsCount: len(records)}
	if len(records) == 0 {
		return progress, nil
	}

	progress.ProgressPercent = 100
	var difficultySum float64
	for _, rec := range records {
		progress.TotalTimeSpent += rec.TimeSpent
		difficultySum += float64(rec.DifficultyActual)
	}
	progress.AvgDifficulty = difficultySum / float64(len(records))
	return progress, nil
}

// LinkTaskInput 把一次完成的任务关联到截止任务
type LinkTaskInput struct {
	TaskName         string `json:"task_name" binding:"required"`
	TimeSpent        int    `json:"time_spent" binding:"required"`
	DifficultyActual int    `json:"difficulty_actual"`
	CompletedDate    string `json:"completed_date"`
}

func (s *DeadlineService) LinkTask(deadlineID uint, input *LinkTaskInput) (*model.TaskHistory, error) {
	if _, err := s.GetDeadline(deadlineID); err != nil {
		return nil, err
	}
	if input.TimeSpent <= 0 {
		return nil, util.Validationf("time_spent", "time_spent must be positive")
	}

	completed := input.CompletedDate
	if completed == "" {
		completed = truncateToDay(s.now()).Format(model.DateLayout)
	} else if _, err := model.ParseDate(completed); err != nil {
		return nil, util.Validationf("completed_date", "completed_date must be in YYYY-MM-DD format")
	}

	history := &model.TaskHistory{
		TaskName:         input.TaskName,
		DeadlineID:       &deadlineID,
		TimeSpent:        input.TimeSpent,
		DifficultyActual: input.DifficultyActual,
		CompletedDate:    completed,
	}
	if err := s.historyRepo.Create(history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *DeadlineService) GetHistory(deadlineID uint) ([]model.TaskHistory, error) {
	if _, err := s.GetDeadline(deadlineID); err != nil {
		return nil, err
	}
	return s.historyRepo.FindByDeadline(deadlineID)
}

// Statistics 截止任务的整体统计
type Statistics struct {
	Total          int64                          `json:"total"`
	ByStatus       map[model.DeadlineStatus]int64 `json:"by_status"`
	Overdue        int64                          `json:"overdue"`
	Upcoming       int                            `json:"upcoming_week"`
	CompletionRate float64                        `json:"completion_rate"`
}

func (s *DeadlineService) GetStatistics() (*Statistics, error) {
	counts, err := s.deadlineRepo.StatusCounts()
	if err != nil {
		return nil, err
	}

	stats := &Statistics{ByStatus: counts}
	for _, c := range counts {
		stats.Total += c
	}
	stats.Overdue = counts[model.DeadlineOverdue]
	if stats.Total > 0 {
		stats.CompletionRate = float64(counts[model.DeadlineCompleted]) / float64(stats.Total)
	}

	urgent, err := s.GetUrgentDeadlines(defaultUrgentDaysAhead)
	if err != nil {
		return nil, err
	}
	stats.Upcoming = len(urgent)
	return stats, nil
}

// ProductivityReport 区间内的学习产出统计
type ProductivityReport struct {
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	TasksCompleted    int64   `json:"tasks_completed"`
	TotalTimeSpent    int64   `json:"total_time_spent"`
	AvgDifficulty     float64 `json:"avg_difficulty"`
	Sessions          int64   `json:"sessions"`
	AvgEnergy         float64 `json:"avg_energy"`
	AvgCompletionRate float64 `json:"avg_completion_rate"`
}

// GetProductivityReport 汇总区间内的任务完成记录与学习会话
func (s *DeadlineService) GetProductivityReport(startDate, endDate string) (*ProductivityReport, error) {
	if err := validateDate("start_date", startDate); err != nil {
		return nil, err
	}
	if err := validateDate("end_date", endDate); err != nil {
		return nil, err
	}
	if startDate > endDate {
		return nil, util.Validationf("start_date", "start_date must not be after end_date")
	}

	taskStats, err := s.historyRepo.StatsRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	sessionStats, err := s.sessionRepo.StatsRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	return &ProductivityReport{
		StartDate:         startDate,
		EndDate:           endDate,
		TasksCompleted:    taskStats.TotalTasks,
		TotalTimeSpent:    taskStats.TotalTime,
		AvgDifficulty:     taskStats.AvgDifficulty,
		Sessions:          sessionStats.TotalSessions,
		AvgEnergy:         sessionStats.AvgEnergy,
		AvgCompletionRate: sessionStats.AvgCompletionRate,
	}, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween 按日历日计算 from 到 to 的天数差
func daysBetween(from, to time.Time) int {
	from = truncateToDay(from)
	to = truncateToDay(to)
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
