package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

var (
	// ErrNotTrained 模型在加载制品前被调用
	ErrNotTrained = errors.New("model not trained yet")
	// ErrArtifactMissing 磁盘上不存在训练产物
	ErrArtifactMissing = errors.New("model artifact not found")
)

const (
	rankerArtifact     = "task_ranker.json"
	timeArtifact       = "time_allocator.json"
	difficultyArtifact = "difficulty_adjuster.json"
)

// 时长模型输出的有效区间（分钟）
const (
	MinTaskMinutes = 30
	MaxTaskMinutes = 120
)

// regressorArtifact 线性回归制品：标准化统计量 + 线性系数
type regressorArtifact struct {
	FeatureNames []string  `json:"feature_names"`
	ScalerMean   []float64 `json:"scaler_mean"`
	ScalerScale  []float64 `json:"scaler_scale"`
	Coef         []float64 `json:"coef"`
	Intercept    float64   `json:"intercept"`
}

// classifierArtifact 多项逻辑回归制品，每个类别一行系数
type classifierArtifact struct {
	FeatureNames []string    `json:"feature_names"`
	ScalerMean   []float64   `json:"scaler_mean"`
	ScalerScale  []float64   `json:"scaler_scale"`
	Coef         [][]float64 `json:"coef"`
	Intercept    []float64   `json:"intercept"`
	Classes      []int       `json:"classes"`
}

func loadArtifact(dir, name string, out interface{}) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, name)
		}
		return err
	}
	return json.Unmarshal(data, out)
}

func standardize(vec, mean, scale []float64) []float64 {
	out := make([]float64, len(vec))
	for i := range vec {
		s := scale[i]
		if s == 0 {
			s = 1
		}
		out[i] = (vec[i] - mean[i]) / s
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// TaskRankingModel 任务排序模型，输出跨候选集 min-max 归一化到 [0,1] 的分数
type TaskRankingModel struct {
	art *regressorArtifact
}

func (m *TaskRankingModel) score(f Features) (float64, error) {
	if m == nil || m.art == nil {
		return 0, ErrNotTrained
	}
	vec, err := f.Vector(m.art.FeatureNames)
	if err != nil {
		return 0, err
	}
	scaled := standardize(vec, m.art.ScalerMean, m.art.ScalerScale)
	return dot(scaled, m.art.Coef) + m.art.Intercept, nil
}

// PredictRanking 为每行特征打分并做 min-max 归一化。
// 所有分数相同时归一化结果全为 0，排序退化为输入顺序（稳定）
func (m *TaskRankingModel) PredictRanking(rows []Features) ([]float64, error) {
	if m == nil || m.art == nil {
		return nil, ErrNotTrained
	}
	scores := make([]float64, len(rows))
	for i, f := range rows {
		s, err := m.score(f)
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}

	if len(scores) == 0 {
		return scores, nil
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	for i, s := range scores {
		scores[i] = clamp((s-lo)/(hi-lo+1e-10), 0, 1)
	}
	return scores, nil
}

// TimeAllocationModel 任务时长模型，预测值裁剪到 [30,120] 分钟
type TimeAllocationModel struct {
	art *regressorArtifact
}

func (m *TimeAllocationModel) PredictTime(rows []Features) ([]float64, error) {
	if m == nil || m.art == nil {
		return nil, ErrNotTrained
	}
	out := make([]float64, len(rows))
	for i, f := range rows {
		vec, err := f.Vector(m.art.FeatureNames)
		if err != nil {
			return nil, err
		}
		scaled := standardize(vec, m.art.ScalerMean, m.art.ScalerScale)
		out[i] = clamp(dot(scaled, m.art.Coef)+m.art.Intercept, MinTaskMinutes, MaxTaskMinutes)
	}
	return out, nil
}

// DifficultyAdjustmentModel 难度调整模型，三分类 softmax 输出 {-1,0,+1}
type DifficultyAdjustmentModel struct {
	art *classifierArtifact
}

func (m *DifficultyAdjustmentModel) PredictAdjustment(f Features) (int, error) {
	if m == nil || m.art == nil {
		return 0, ErrNotTrained
	}
	vec, err := f.Vector(m.art.FeatureNames)
	if err != nil {
		return 0, err
	}
	scaled := standardize(vec, m.art.ScalerMean, m.art.ScalerScale)

	best := 0
	bestLogit := math.Inf(-1)
	for i, coef := range m.art.Coef {
		logit := dot(scaled, coef) + m.art.Intercept[i]
		if logit > bestLogit {
			bestLogit = logit
			best = i
		}
	}
	return m.art.Classes[best], nil
}

// Models 三个独立训练的预测模型
type Models struct {
	Ranker     *TaskRankingModel
	Time       *TimeAllocationModel
	Difficulty *DifficultyAdjustmentModel
}

// Load 从目录加载全部模型制品。任一制品缺失返回 ErrArtifactMissing，
// 调用方应提示先执行训练
func Load(dir string) (*Models, error) {
	var ranker regressorArtifact
	if err := loadArtifact(dir, rankerArtifact, &ranker); err != nil {
		return nil, err
	}

	var timeArt regressorArtifact
	if err := loadArtifact(dir, timeArtifact, &timeArt); err != nil {
		return nil, err
	}

	var diff classifierArtifact
	if err := loadArtifact(dir, difficultyArtifact, &diff); err != nil {
		return nil, err
	}
	if len(diff.Coef) != len(diff.Classes) || len(diff.Intercept) != len(diff.Classes) {
		return nil, fmt.Errorf("difficulty artifact is inconsistent: %d classes, %d coefficient rows", len(diff.Classes), len(diff.Coef))
	}

	return &Models{
		Ranker:     &TaskRankingModel{art: &ranker},
		Time:       &TimeAllocationModel{art: &timeArt},
		Difficulty: &DifficultyAdjustmentModel{art: &diff},
	}, nil
}

// NewTestModels 用给定系数直接构造模型，测试用
func NewTestModels(featureNames []string, rankerCoef, timeCoef []float64, timeIntercept float64, diffCoef [][]float64, diffIntercept []float64) *Models {
	n := len(featureNames)
	mean := make([]float64, n)
	scale := make([]float64, n)
	for i := range scale {
		scale[i] = 1
	}
	return &Models{
		Ranker: &TaskRankingModel{art: &regressorArtifact{
			FeatureNames: featureNames, ScalerMean: mean, ScalerScale: scale, Coef: rankerCoef,
		}},
		Time: &TimeAllocationModel{art: &regressorArtifact{
			FeatureNames: featureNames, ScalerMean: mean, ScalerScale: scale, Coef: timeCoef, Intercept: timeIntercept,
		}},
		Difficulty: &DifficultyAdjustmentModel{art: &classifierArtifact{
			FeatureNames: featureNames, ScalerMean: mean, ScalerScale: scale,
			Coef: diffCoef, Intercept: diffIntercept, Classes: []int{-1, 0, 1},
		}},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
