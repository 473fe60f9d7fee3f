package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"study_planner_backend/internal/model"
	"study_planner_backend/internal/repository"
	"study_planner_backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const trackingHistoryDays = 30

// UserService 用户档案、计时与个人分析
type UserService struct {
	userRepo     *repository.UserRepository
	trackingRepo *repository.TrackingRepository
	logger       *zap.Logger
	now          func() time.Time
}

func NewUserService(userRepo *repository.UserRepository, trackingRepo *repository.TrackingRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo:     userRepo,
		trackingRepo: trackingRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Profile 用户档案及学习偏好
type Profile struct {
	User       *model.User           `json:"user"`
	Preference *model.UserPreference `json:"preference,omitempty"`
}

func (s *UserService) GetProfile(userID string) (*Profile, error) {
	user, err := s.userRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: user}
	pref, err := s.userRepo.FindPreference(userID)
	if err == nil {
		profile.Preference = pref
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return profile, nil
}

// UpdateProfileInput 档案更新，零值字段跳过
type UpdateProfileInput struct {
	Name                     string `json:"name"`
	LearningGoal             string `json:"learning_goal"`
	EducationLevel           string `json:"education_level"`
	SubjectArea              string `json:"subject_area"`
	PreferredSessionDuration int    `json:"preferred_session_duration"`
}

func (s *UserService) UpdateProfile(userID string, input *UpdateProfileInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.LearningGoal != "" {
		user.LearningGoal = input.LearningGoal
	}
	if input.EducationLevel != "" {
		user.EducationLevel = input.EducationLevel
	}
	if input.SubjectArea != "" {
		user.SubjectArea = input.SubjectArea
	}
	if input.PreferredSessionDuration > 0 {
		user.PreferredSessionDuration = input.PreferredSessionDuration
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ClockInInput 开始计时
type ClockInInput struct {
	TaskName string `json:"task_name" binding:"required"`
	Notes    string `json:"notes"`
}

func (s *UserService) ClockIn(userID string, input *ClockInInput) (*model.TimeTracking, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	now := s.now()
	session := &model.TimeTracking{
		TrackingID:  uuid.NewString(),
		UserID:      userID,
		TaskName:    input.TaskName,
		Date:        truncateToDay(now).Format(model.DateLayout),
		ClockInTime: now,
		Notes:       input.Notes,
	}
	if err := s.trackingRepo.CreateSession(session); err != nil {
		return nil, err
	}

	s.logger.Info("开始计时",
		zap.String("user_id", userID),
		zap.String("tracking_id", session.TrackingID),
		zap.String("task", input.TaskName))
	return session, nil
}

// ClockOutInput 结束计时
type ClockOutInput struct {
	TrackingID       string `json:"tracking_id"`
	DifficultyRating int    `json:"difficulty_rating"`
	Notes            string `json:"notes"`
}

// ClockOut 结束会话并计算时长。未指定 tracking_id 时结束当前进行中的会话
func (s *UserService) ClockOut(userID string, input *ClockOutInput) (*model.TimeTracking, error) {
	var session *model.TimeTracking
	var err error
	if input.TrackingID != "" {
		session, err = s.trackingRepo.FindByID(input.TrackingID)
	} else {
		session, err = s.trackingRepo.FindOpenByUser(userID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTrackingNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrTrackingNotFound
	}
	if session.ClockOutTime != nil {
		return nil, util.ErrSessionClosed
	}

	now := s.now()
	session.ClockOutTime = &now
	session.DurationMinutes = int(math.Round(now.Sub(session.ClockInTime).Minutes()))
	if input.DifficultyRating > 0 {
		session.DifficultyRating = input.DifficultyRating
	}
	if input.Notes != "" {
		session.Notes = input.Notes
	}

	if err := s.trackingRepo.Update(session); err != nil {
		return nil, err
	}
	return session, nil
}

// ActiveSession 当前进行中的会话
func (s *UserService) ActiveSession(userID string) (*model.TimeTracking, error) {
	session, err := s.trackingRepo.FindOpenByUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTrackingNotFound
	}
	return session, err
}

// TrackingHistory 近 30 天的计时记录
func (s *UserService) TrackingHistory(userID string) ([]model.TimeTracking, error) {
	start := truncateToDay(s.now()).AddDate(0, 0, -trackingHistoryDays).Format(model.DateLayout)
	return s.trackingRepo.HistorySince(userID, start)
}

// ComputeAnalytics 基于已结束的会话重算个人分析并刷新缓存
func (s *UserService) ComputeAnalytics(userID string) (*model.UserAnalytics, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	sessions, err := s.trackingRepo.ClosedSessions(userID)
	if err != nil {
		return nil, err
	}

	analytics := &model.UserAnalytics{UserID: userID, FavoriteSubjects: "[]"}
	if len(sessions) > 0 {
		var totalMinutes, difficultySum int
		hourCounts := make(map[int]int)
		for _, sess := range sessions {
			totalMinutes += sess.DurationMinutes
			difficultySum += sess.DifficultyRating
			hourCounts[sess.ClockInTime.Hour()]++
		}

		analytics.AvgSessionDuration = float64(totalMinutes) / float64(len(sessions))
		analytics.TotalStudyHours = float64(totalMinutes) / 60.0
		analytics.MostProductiveHour = fmt.Sprintf("%02d:00", modeHour(hourCounts))

		avgDifficulty := float64(difficultySum) / float64(len(sessions))
		score := analytics.AvgSessionDuration/60.0*50 + (5-avgDifficulty)*10
		analytics.ProductivityScore = clampFloat(score, 0, 100)

		top, err := s.trackingRepo.TopTasks(userID, 3)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(top))
		for _, t := range top {
			names = append(names, t.TaskName)
		}
		encoded, err := json.Marshal(names)
		if err != nil {
			return nil, err
		}
		analytics.FavoriteSubjects = string(encoded)
	}

	if err := s.trackingRepo.SaveAnalytics(analytics); err != nil {
		return nil, err
	}
	return analytics, nil
}

// modeHour 出现次数最多的打卡小时，并列时取较早的
func modeHour(counts map[int]int) int {
	best, bestCount := 0, -1
	for h := 0; h < 24; h++ {
		if c := counts[h]; c > bestCount {
			best, bestCount = h, c
		}
	}
	return best
}

// GetInsights 由分析结果生成可读的学习建议
func (s *UserService) GetInsights(userID string) ([]string, error) {
	analytics, err := s.ComputeAnalytics(userID)
	if err != nil {
		return nil, err
	}

	var insights []string
	if analytics.TotalStudyHours == 0 {
		insights = append(insights, "No completed study sessions yet. Clock in to start building your learning record.")
		return insights, nil
	}

	insights = append(insights, fmt.Sprintf("You study best around %s. Schedule demanding work in that window.", analytics.MostProductiveHour))

	switch {
	case analytics.AvgSessionDuration < 25:
		insights = append(insights, "Your sessions are short. Try extending them toward 30-45 minutes for deeper focus.")
	case analytics.AvgSessionDuration > 90:
		insights = append(insights, "Your sessions run long. Insert breaks to keep concentration high.")
	default:
		insights = append(insights, "Your session length is in a healthy range, keep it up.")
	}

	if analytics.ProductivityScore >= 70 {
		insights = append(insights, "Productivity is strong. Consider raising the difficulty of your material.")
	} else if analytics.ProductivityScore < 40 {
		insights = append(insights, "Productivity is below your potential. Shorter, more frequent sessions may help.")
	}

	var favorites []string
	if err := json.Unmarshal([]byte(analytics.FavoriteSubjects), &favorites); err == nil && len(favorites) > 0 {
		insights = append(insights, fmt.Sprintf("Most practiced recently: %s.", favorites[0]))
	}
	return insights, nil
}
