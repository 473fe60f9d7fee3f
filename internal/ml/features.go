package ml

import "fmt"

// PlanInput 规划请求中参与特征计算的部分
type PlanInput struct {
	Tasks            []string
	TimeSpent        []int
	DifficultyRating []int
	EnergyLevel      int
	AvailableMinutes int
}

// Features 固定结构的特征向量。字段与训练时的特征名一一对应，
// 通过 Vector 按制品中记录的 feature_names 顺序取值
type Features struct {
	AvgTimeSpent3d       float64
	DifficultyTrend      float64
	NormalizedDifficulty float64
	FatigueScore         float64
	ProductivityScore    float64
	TaskFrequency        float64
	TaskTypeEncoded      float64
	EnergyLevel          float64
	CompletionRatio      float64
}

// BuildFeatures 从规划请求构建特征。空任务列表产生零值/中性特征，不会出现 NaN
func BuildFeatures(in PlanInput) Features {
	n := len(in.Tasks)

	var avgTime float64
	if n > 0 {
		total := 0
		for _, m := range in.TimeSpent {
			total += m
		}
		avgTime = float64(total) / float64(n)
	}

	var trend float64
	if n >= 2 {
		trend = float64(in.DifficultyRating[n-1] - in.DifficultyRating[0])
	}

	var normDifficulty float64
	if n > 0 {
		total := 0
		for _, d := range in.DifficultyRating {
			total += d
		}
		normDifficulty = float64(total) / float64(n) / 5.0
	}

	energy := float64(in.EnergyLevel)
	completion := energy / 5.0 * 0.85
	if completion > 1.0 {
		completion = 1.0
	}

	return Features{
		AvgTimeSpent3d:       avgTime,
		DifficultyTrend:      trend,
		NormalizedDifficulty: normDifficulty,
		FatigueScore:         5 - energy,
		ProductivityScore:    energy / 5.0 * 0.8,
		TaskFrequency:        float64(n),
		// 实时请求路径不做任务类型编码，批量离线特征才会用到
		TaskTypeEncoded: 0,
		EnergyLevel:     energy,
		CompletionRatio: completion,
	}
}

// BuildTaskFeatures 为单个任务构建特征行：共享整体能量上下文，
// 用该任务自身的用时和难度替换聚合值，供排序/时长模型逐任务打分
func BuildTaskFeatures(in PlanInput, i int) Features {
	f := BuildFeatures(in)
	if i >= 0 && i < len(in.TimeSpent) {
		f.AvgTimeSpent3d = float64(in.TimeSpent[i])
	}
	if i >= 0 && i < len(in.DifficultyRating) {
		f.NormalizedDifficulty = float64(in.DifficultyRating[i]) / 5.0
	}
	return f
}

// Vector 按给定特征名顺序展开为数值向量
func (f Features) Vector(names []string) ([]float64, error) {
	vec := make([]float64, 0, len(names))
	for _, name := range names {
		switch name {
		case "avg_time_spent_3d":
			vec = append(vec, f.AvgTimeSpent3d)
		case "difficulty_trend":
			vec = append(vec, f.DifficultyTrend)
		case "normalized_difficulty":
			vec = append(vec, f.NormalizedDifficulty)
		case "fatigue_score":
			vec = append(vec, f.FatigueScore)
		case "productivity_score":
			vec = append(vec, f.ProductivityScore)
		case "task_frequency":
			vec = append(vec, f.TaskFrequency)
		case "task_type_encoded":
			vec = append(vec, f.TaskTypeEncoded)
		case "energy_level":
			vec = append(vec, f.EnergyLevel)
		case "completion_ratio":
			vec = append(vec, f.CompletionRatio)
		default:
			return nil, fmt.Errorf("unknown feature name: %s", name)
		}
	}
	return vec, nil
}
