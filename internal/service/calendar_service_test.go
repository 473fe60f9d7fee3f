package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"study_planner_backend/internal/repository"
	"study_planner_backend/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestCalendar(t *testing.T, db *gorm.DB, storage StorageProvider) *CalendarService {
	t.Helper()
	if storage == nil {
		storage = NewLocalStorageProvider(t.TempDir())
	}
	svc := NewCalendarService(
		repository.NewPlanRepository(db),
		repository.NewFeedbackRepository(db),
		storage,
		zap.NewNop(),
	)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedPlan(t *testing.T, db *gorm.DB, date string) {
	t.Helper()
	svc := newTestPlanner(t, db, newPlannerModels(60))
	in := validPlanInput()
	in.Date = date
	if _, err := svc.GeneratePlan(in); err != nil {
		t.Fatalf("seed plan %s: %v", date, err)
	}
}

func TestGetPlanRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCalendar(t, db, nil)
	date := testDate(testNow)
	seedPlan(t, db, date)

	stored, err := svc.GetPlan(date)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if stored.Date != date || stored.NumTasks != 3 {
		t.Errorf("stored plan wrong: %+v", stored)
	}

	var plan GeneratedPlan
	if err := json.Unmarshal(stored.Plan, &plan); err != nil {
		t.Fatalf("plan payload not valid JSON: %v", err)
	}
	if len(plan.Tasks) != 3 {
		t.Errorf("restored plan has %d tasks, want 3", len(plan.Tasks))
	}
	if stored.Metrics["energy_level"] != 4 {
		t.Errorf("metrics missing: %+v", stored.Metrics)
	}
}

func TestGetPlanWithFeedback(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCalendar(t, db, nil)
	date := testDate(testNow)
	seedPlan(t, db, date)

	combined, err := svc.GetPlanWithFeedback(date)
	if err != nil {
		t.Fatalf("GetPlanWithFeedback: %v", err)
	}
	if combined.Feedback != nil {
		t.Error("feedback should be nil before any submission")
	}

	if _, err := svc.SubmitFeedback(&FeedbackInput{Date: date, CompletionRatio: 0.6, Tiredness: 3}); err != nil {
		t.Fatalf("feedback: %v", err)
	}

	combined, err = svc.GetPlanWithFeedback(date)
	if err != nil {
		t.Fatalf("GetPlanWithFeedback: %v", err)
	}
	if combined.Feedback == nil || combined.Feedback.CompletionRatio != 0.6 {
		t.Errorf("feedback not attached: %+v", combined.Feedback)
	}
}

func TestGetPlanNotFound(t *testing.T) {
	svc := newTestCalendar(t, newTestDB(t), nil)
	if _, err := svc.GetPlan("2025-01-01"); !errors.Is(err, util.ErrPlanNotFound) {
		t.Errorf("expected ErrPlanNotFound, got %v", err)
	}
	if _, err := svc.GetPlan("bad-date"); !util.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestListPlansInclusiveRange(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCalendar(t, db, nil)

	dates := []string{"2025-03-09", "2025-03-10", "2025-03-11", "2025-03-12"}
	for _, d := range dates {
		seedPlan(t, db, d)
	}

	plans, err := svc.ListPlans("2025-03-10", "2025-03-11")
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("got %d plans, want 2 (both endpoints inclusive)", len(plans))
	}
	if plans[0].Date != "2025-03-10" || plans[1].Date != "2025-03-11" {
		t.Errorf("wrong order: %s, %s", plans[0].Date, plans[1].Date)
	}

	if _, err := svc.ListPlans("2025-03-12", "2025-03-10"); !util.IsValidation(err) {
		t.Errorf("expected validation error for inverted range, got %v", err)
	}
}

func TestSubmitFeedbackRequiresPlan(t *testing.T) {
	svc := newTestCalendar(t, newTestDB(t), nil)

	_, err := svc.SubmitFeedback(&FeedbackInput{
		Date:            "2025-03-10",
		CompletionRatio: 0.8,
		Tiredness:       3,
	})
	if !errors.Is(err, util.ErrPlanNotFound) {
		t.Errorf("expected ErrPlanNotFound without a plan, got %v", err)
	}
}

func TestSubmitFeedbackUpsert(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCalendar(t, db, nil)
	date := testDate(testNow)
	seedPlan(t, db, date)

	if _, err := svc.SubmitFeedback(&FeedbackInput{Date: date, CompletionRatio: 0.5, Tiredness: 4}); err != nil {
		t.Fatalf("first feedback: %v", err)
	}
	if _, err := svc.SubmitFeedback(&FeedbackInput{Date: date, CompletionRatio: 0.9, Tiredness: 2, Notes: "better"}); err != nil {
		t.Fatalf("second feedback: %v", err)
	}

	feedback, err := svc.GetFeedback(date)
	if err != nil {
		t.Fatalf("GetFeedback: %v", err)
	}
	if feedback.CompletionRatio != 0.9 || feedback.Tiredness != 2 || feedback.Notes != "better" {
		t.Errorf("feedback not overwritten: %+v", feedback)
	}

	list, err := svc.ListFeedback(date, date)
	if err != nil {
		t.Fatalf("ListFeedback: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("feedback rows = %d, want 1 after upsert", len(list))
	}
}

func TestSubmitFeedbackValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCalendar(t, db, nil)
	date := testDate(testNow)
	seedPlan(t, db, date)

	cases := []FeedbackInput{
		{Date: date, CompletionRatio: 1.5, Tiredness: 3},
		{Date: date, CompletionRatio: -0.1, Tiredness: 3},
		{Date: date, CompletionRatio: 0.5, Tiredness: 0},
		{Date: date, CompletionRatio: 0.5, Tiredness: 6},
		{Date: "2025/03/10", CompletionRatio: 0.5, Tiredness: 3},
	}
	for i, in := range cases {
		if _, err := svc.SubmitFeedback(&in); !util.IsValidation(err) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestDeletePlanRemovesFeedback(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCalendar(t, db, nil)
	date := testDate(testNow)
	seedPlan(t, db, date)

	if _, err := svc.SubmitFeedback(&FeedbackInput{Date: date, CompletionRatio: 1, Tiredness: 2}); err != nil {
		t.Fatalf("feedback: %v", err)
	}

	if err := svc.DeletePlan(date); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}

	if _, err := svc.GetPlan(date); !errors.Is(err, util.ErrPlanNotFound) {
		t.Errorf("plan should be gone, got %v", err)
	}
	if _, err := svc.GetFeedback(date); !errors.Is(err, util.ErrFeedbackNotFound) {
		t.Errorf("feedback should be gone, got %v", err)
	}

	if err := svc.DeletePlan(date); !errors.Is(err, util.ErrPlanNotFound) {
		t.Errorf("second delete should report not found, got %v", err)
	}
}

func TestDeletePlanThenRegenerate(t *testing.T) {
	db := newTestDB(t)
	svc := newTestCalendar(t, db, nil)
	date := testDate(testNow)
	seedPlan(t, db, date)

	if _, err := svc.SubmitFeedback(&FeedbackInput{Date: date, CompletionRatio: 0.5, Tiredness: 3}); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if err := svc.DeletePlan(date); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}

	// 删除后同日重新生成，按日 upsert 不能被残留行挡住
	seedPlan(t, db, date)

	stored, err := svc.GetPlan(date)
	if err != nil {
		t.Fatalf("GetPlan after regenerate: %v", err)
	}
	if stored.NumTasks != 3 {
		t.Errorf("regenerated plan wrong: %+v", stored)
	}
	if stored.Metrics["energy_level"] != 4 {
		t.Errorf("regenerated metrics missing: %+v", stored.Metrics)
	}

	// 反馈同样可以重新提交
	if _, err := svc.SubmitFeedback(&FeedbackInput{Date: date, CompletionRatio: 0.8, Tiredness: 2}); err != nil {
		t.Fatalf("feedback after regenerate: %v", err)
	}
	feedback, err := svc.GetFeedback(date)
	if err != nil {
		t.Fatalf("GetFeedback after regenerate: %v", err)
	}
	if feedback.CompletionRatio != 0.8 {
		t.Errorf("feedback = %+v, want refreshed values", feedback)
	}
}

func TestExportRange(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	svc := newTestCalendar(t, db, NewLocalStorageProvider(dir))
	date := testDate(testNow)
	seedPlan(t, db, date)
	if _, err := svc.SubmitFeedback(&FeedbackInput{Date: date, CompletionRatio: 0.7, Tiredness: 3}); err != nil {
		t.Fatalf("feedback: %v", err)
	}

	location, err := svc.ExportRange(context.Background(), date, date)
	if err != nil {
		t.Fatalf("ExportRange: %v", err)
	}

	data, err := os.ReadFile(location)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	var payload struct {
		Plans    []json.RawMessage `json:"plans"`
		Feedback []json.RawMessage `json:"feedback"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("export not valid JSON: %v", err)
	}
	if len(payload.Plans) != 1 || len(payload.Feedback) != 1 {
		t.Errorf("export contents wrong: %d plans, %d feedback", len(payload.Plans), len(payload.Feedback))
	}
}
