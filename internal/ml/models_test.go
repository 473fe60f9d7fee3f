package ml

import (
	"errors"
	"testing"
)

var testFeatureNames = []string{
	"avg_time_spent_3d", "difficulty_trend", "normalized_difficulty",
	"fatigue_score", "productivity_score", "task_frequency",
	"task_type_encoded", "energy_level", "completion_ratio",
}

func coefFor(name string, value float64) []float64 {
	coef := make([]float64, len(testFeatureNames))
	for i, n := range testFeatureNames {
		if n == name {
			coef[i] = value
		}
	}
	return coef
}

func TestPredictRankingNormalized(t *testing.T) {
	models := NewTestModels(testFeatureNames,
		coefFor("normalized_difficulty", 1),
		coefFor("avg_time_spent_3d", 0), 60,
		[][]float64{make([]float64, 9), make([]float64, 9), make([]float64, 9)},
		[]float64{0, 1, 0})

	rows := []Features{
		{NormalizedDifficulty: 0.2},
		{NormalizedDifficulty: 1.0},
		{NormalizedDifficulty: 0.6},
	}
	scores, err := models.Ranker.PredictRanking(rows)
	if err != nil {
		t.Fatalf("PredictRanking: %v", err)
	}

	if scores[1] <= scores[2] || scores[2] <= scores[0] {
		t.Errorf("scores not ordered by difficulty: %v", scores)
	}
	for i, s := range scores {
		if s < 0 || s > 1 {
			t.Errorf("scores[%d] = %v, outside [0,1]", i, s)
		}
	}
	// 最高分接近 1，最低分接近 0
	if scores[1] < 0.99 || scores[0] > 0.01 {
		t.Errorf("min-max normalization off: %v", scores)
	}
}

func TestPredictRankingAllEqual(t *testing.T) {
	models := NewTestModels(testFeatureNames,
		coefFor("normalized_difficulty", 1),
		nil, 60,
		[][]float64{make([]float64, 9), make([]float64, 9), make([]float64, 9)},
		[]float64{0, 1, 0})

	rows := []Features{{NormalizedDifficulty: 0.5}, {NormalizedDifficulty: 0.5}}
	scores, err := models.Ranker.PredictRanking(rows)
	if err != nil {
		t.Fatalf("PredictRanking: %v", err)
	}
	for i, s := range scores {
		if s != 0 {
			t.Errorf("scores[%d] = %v, want 0 when all raw scores equal", i, s)
		}
	}
}

func TestPredictTimeClamped(t *testing.T) {
	models := NewTestModels(testFeatureNames,
		coefFor("normalized_difficulty", 1),
		coefFor("avg_time_spent_3d", 10), 0,
		[][]float64{make([]float64, 9), make([]float64, 9), make([]float64, 9)},
		[]float64{0, 1, 0})

	rows := []Features{
		{AvgTimeSpent3d: 0},   // 预测 0，裁剪到 30
		{AvgTimeSpent3d: 100}, // 预测 1000，裁剪到 120
		{AvgTimeSpent3d: 6},   // 预测 60，保留
	}
	minutes, err := models.Time.PredictTime(rows)
	if err != nil {
		t.Fatalf("PredictTime: %v", err)
	}
	if minutes[0] != MinTaskMinutes {
		t.Errorf("minutes[0] = %v, want %d", minutes[0], MinTaskMinutes)
	}
	if minutes[1] != MaxTaskMinutes {
		t.Errorf("minutes[1] = %v, want %d", minutes[1], MaxTaskMinutes)
	}
	if minutes[2] != 60 {
		t.Errorf("minutes[2] = %v, want 60", minutes[2])
	}
}

func TestPredictAdjustment(t *testing.T) {
	// 疲劳高时偏向 -1 类（第一行系数）
	diffCoef := [][]float64{
		coefFor("fatigue_score", 1),
		make([]float64, 9),
		coefFor("energy_level", 1),
	}
	models := NewTestModels(testFeatureNames,
		coefFor("normalized_difficulty", 1),
		nil, 60,
		diffCoef, []float64{0, 0.5, 0})

	adj, err := models.Difficulty.PredictAdjustment(Features{FatigueScore: 4, EnergyLevel: 1})
	if err != nil {
		t.Fatalf("PredictAdjustment: %v", err)
	}
	if adj != -1 {
		t.Errorf("adjustment = %d, want -1 for high fatigue", adj)
	}

	adj, err = models.Difficulty.PredictAdjustment(Features{FatigueScore: 0, EnergyLevel: 5})
	if err != nil {
		t.Fatalf("PredictAdjustment: %v", err)
	}
	if adj != 1 {
		t.Errorf("adjustment = %d, want +1 for high energy", adj)
	}
}

func TestLoadMissingArtifacts(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrArtifactMissing) {
		t.Errorf("Load on empty dir = %v, want ErrArtifactMissing", err)
	}
}

func TestLoadCommittedArtifacts(t *testing.T) {
	models, err := Load("../../models")
	if err != nil {
		t.Fatalf("Load committed artifacts: %v", err)
	}

	rows := []Features{
		BuildTaskFeatures(PlanInput{
			Tasks:            []string{"math", "english"},
			TimeSpent:        []int{45, 20},
			DifficultyRating: []int{4, 2},
			EnergyLevel:      3,
		}, 0),
		BuildTaskFeatures(PlanInput{
			Tasks:            []string{"math", "english"},
			TimeSpent:        []int{45, 20},
			DifficultyRating: []int{4, 2},
			EnergyLevel:      3,
		}, 1),
	}

	scores, err := models.Ranker.PredictRanking(rows)
	if err != nil {
		t.Fatalf("PredictRanking: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(scores))
	}

	minutes, err := models.Time.PredictTime(rows)
	if err != nil {
		t.Fatalf("PredictTime: %v", err)
	}
	for i, m := range minutes {
		if m < MinTaskMinutes || m > MaxTaskMinutes {
			t.Errorf("minutes[%d] = %v, outside [%d,%d]", i, m, MinTaskMinutes, MaxTaskMinutes)
		}
	}

	if _, err := models.Difficulty.PredictAdjustment(rows[0]); err != nil {
		t.Fatalf("PredictAdjustment: %v", err)
	}
}
