package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"study_planner_backend/internal/model"
	"study_planner_backend/internal/repository"
	"study_planner_backend/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestUserService(t *testing.T, db *gorm.DB) *UserService {
	t.Helper()
	svc := NewUserService(
		repository.NewUserRepository(db),
		repository.NewTrackingRepository(db),
		zap.NewNop(),
	)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	result, err := newTestAuth(t, db).Register(validRegisterInput())
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return result.User
}

func TestClockInSingleOpenSession(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	user := seedUser(t, db)

	session, err := svc.ClockIn(user.UserID, &ClockInInput{TaskName: "reading"})
	if err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	if session.TrackingID == "" {
		t.Error("tracking id should be assigned")
	}
	if session.Date != testDate(testNow) {
		t.Errorf("session date = %q, want %q", session.Date, testDate(testNow))
	}

	// 已有进行中的会话时拒绝再次打卡
	if _, err := svc.ClockIn(user.UserID, &ClockInInput{TaskName: "writing"}); !errors.Is(err, util.ErrSessionAlreadyOpen) {
		t.Errorf("expected ErrSessionAlreadyOpen, got %v", err)
	}

	active, err := svc.ActiveSession(user.UserID)
	if err != nil {
		t.Fatalf("ActiveSession: %v", err)
	}
	if active.TrackingID != session.TrackingID {
		t.Errorf("active session = %q, want %q", active.TrackingID, session.TrackingID)
	}
}

func TestClockOutComputesDuration(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	user := seedUser(t, db)

	if _, err := svc.ClockIn(user.UserID, &ClockInInput{TaskName: "reading"}); err != nil {
		t.Fatalf("ClockIn: %v", err)
	}

	svc.now = func() time.Time { return testNow.Add(50 * time.Minute) }
	session, err := svc.ClockOut(user.UserID, &ClockOutInput{DifficultyRating: 6})
	if err != nil {
		t.Fatalf("ClockOut: %v", err)
	}
	if session.DurationMinutes != 50 {
		t.Errorf("duration = %d, want 50", session.DurationMinutes)
	}
	if session.ClockOutTime == nil {
		t.Fatal("clock out time not set")
	}
	if session.DifficultyRating != 6 {
		t.Errorf("difficulty = %d, want 6", session.DifficultyRating)
	}

	// 会话已结束，再次打卡结束报错
	if _, err := svc.ClockOut(user.UserID, &ClockOutInput{TrackingID: session.TrackingID}); !errors.Is(err, util.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}

	// 结束后可以开启新会话
	if _, err := svc.ClockIn(user.UserID, &ClockInInput{TaskName: "writing"}); err != nil {
		t.Errorf("clock in after clock out: %v", err)
	}
}

func TestClockOutWithoutOpenSession(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	user := seedUser(t, db)

	if _, err := svc.ClockOut(user.UserID, &ClockOutInput{}); !errors.Is(err, util.ErrTrackingNotFound) {
		t.Errorf("expected ErrTrackingNotFound, got %v", err)
	}
}

func TestClockOutRejectsForeignSession(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	owner := seedUser(t, db)

	other, err := newTestAuth(t, db).Register(&RegisterInput{
		Name: "Bob", Email: "bob@example.com", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register second user: %v", err)
	}

	session, err := svc.ClockIn(owner.UserID, &ClockInInput{TaskName: "reading"})
	if err != nil {
		t.Fatalf("ClockIn: %v", err)
	}

	if _, err := svc.ClockOut(other.User.UserID, &ClockOutInput{TrackingID: session.TrackingID}); !errors.Is(err, util.ErrTrackingNotFound) {
		t.Errorf("foreign session must not be closable, got %v", err)
	}
}

func closedSession(user *model.User, task string, start time.Time, minutes, difficulty int) *model.TimeTracking {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return &model.TimeTracking{
		TrackingID:       task + start.Format("20060102150405"),
		UserID:           user.UserID,
		TaskName:         task,
		Date:             start.Format("2006-01-02"),
		ClockInTime:      start,
		ClockOutTime:     &end,
		DurationMinutes:  minutes,
		DifficultyRating: difficulty,
	}
}

func TestComputeAnalytics(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	user := seedUser(t, db)

	nine := time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)
	sessions := []*model.TimeTracking{
		closedSession(user, "math", nine, 60, 4),
		closedSession(user, "math", nine.Add(24*time.Hour), 30, 2),
		closedSession(user, "english", nine.Add(5*time.Hour), 45, 3),
	}
	for _, s := range sessions {
		if err := db.Create(s).Error; err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}

	analytics, err := svc.ComputeAnalytics(user.UserID)
	if err != nil {
		t.Fatalf("ComputeAnalytics: %v", err)
	}

	if analytics.AvgSessionDuration != 45 {
		t.Errorf("avg duration = %v, want 45", analytics.AvgSessionDuration)
	}
	if analytics.TotalStudyHours != 2.25 {
		t.Errorf("total hours = %v, want 2.25", analytics.TotalStudyHours)
	}
	if analytics.MostProductiveHour != "09:00" {
		t.Errorf("most productive hour = %q, want 09:00", analytics.MostProductiveHour)
	}

	// 45/60*50 + (5-3)*10 = 57.5
	if analytics.ProductivityScore != 57.5 {
		t.Errorf("productivity = %v, want 57.5", analytics.ProductivityScore)
	}

	var favorites []string
	if err := json.Unmarshal([]byte(analytics.FavoriteSubjects), &favorites); err != nil {
		t.Fatalf("favorites not valid JSON: %v", err)
	}
	if len(favorites) == 0 || favorites[0] != "math" {
		t.Errorf("favorites = %v, want math first", favorites)
	}

	// 结果写入缓存表
	cached, err := repository.NewTrackingRepository(db).FindAnalytics(user.UserID)
	if err != nil {
		t.Fatalf("analytics not cached: %v", err)
	}
	if cached.AvgSessionDuration != 45 {
		t.Errorf("cached avg duration = %v, want 45", cached.AvgSessionDuration)
	}
}

func TestComputeAnalyticsNoSessions(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	user := seedUser(t, db)

	analytics, err := svc.ComputeAnalytics(user.UserID)
	if err != nil {
		t.Fatalf("ComputeAnalytics: %v", err)
	}
	if analytics.TotalStudyHours != 0 || analytics.ProductivityScore != 0 {
		t.Errorf("empty analytics wrong: %+v", analytics)
	}
	if analytics.FavoriteSubjects != "[]" {
		t.Errorf("favorites = %q, want empty JSON array", analytics.FavoriteSubjects)
	}
}

func TestGetInsights(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	user := seedUser(t, db)

	insights, err := svc.GetInsights(user.UserID)
	if err != nil {
		t.Fatalf("GetInsights: %v", err)
	}
	if len(insights) != 1 {
		t.Errorf("expected single onboarding insight, got %v", insights)
	}

	nine := time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)
	if err := db.Create(closedSession(user, "math", nine, 45, 3)).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}

	insights, err = svc.GetInsights(user.UserID)
	if err != nil {
		t.Fatalf("GetInsights: %v", err)
	}
	if len(insights) < 2 {
		t.Errorf("expected multiple insights with history, got %v", insights)
	}
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	user := seedUser(t, db)

	updated, err := svc.UpdateProfile(user.UserID, &UpdateProfileInput{
		Name:         "Alice Chen",
		LearningGoal: "pass the entrance exam",
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Name != "Alice Chen" || updated.LearningGoal != "pass the entrance exam" {
		t.Errorf("update not applied: %+v", updated)
	}
	// 未提供的字段保持原值
	if updated.Email != "alice@example.com" {
		t.Errorf("email changed unexpectedly: %q", updated.Email)
	}

	if _, err := svc.UpdateProfile("ghost", &UpdateProfileInput{Name: "x"}); !errors.Is(err, util.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestTrackingHistoryWindow(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	user := seedUser(t, db)

	recent := closedSession(user, "math", testNow.AddDate(0, 0, -5), 30, 3)
	old := closedSession(user, "math", testNow.AddDate(0, 0, -40), 30, 3)
	for _, s := range []*model.TimeTracking{recent, old} {
		if err := db.Create(s).Error; err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}

	history, err := svc.TrackingHistory(user.UserID)
	if err != nil {
		t.Fatalf("TrackingHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d records, want 1 within 30 days", len(history))
	}
	if history[0].TrackingID != recent.TrackingID {
		t.Errorf("wrong record returned: %q", history[0].TrackingID)
	}
}
