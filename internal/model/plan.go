package model

// Plan 某个日期的学习计划，按日期 upsert，最新计划覆盖旧计划
// swagger:model Plan
type Plan struct {
	BaseModel
	Date                string `gorm:"size:10;uniqueIndex;not null" json:"date"` // YYYY-MM-DD
	PlanJSON            string `gorm:"type:text;not null" json:"-"`
	AvailableMinutes    int    `json:"availableMinutes"`
	TotalPlannedMinutes int    `json:"totalPlannedMinutes"`
	NumTasks            int    `json:"numTasks"`
}

func (Plan) TableName() string {
	return "daily_plans"
}

// PlanMetric 计划指标，(date, metric_name) 唯一
type PlanMetric struct {
	BaseModel
	Date        string  `gorm:"size:10;index:idx_plan_metric,unique;not null" json:"date"`
	MetricName  string  `gorm:"size:64;index:idx_plan_metric,unique;not null" json:"metricName"`
	MetricValue float64 `json:"metricValue"`
}

func (PlanMetric) TableName() string {
	return "plan_metrics"
}

// Feedback 某个日期计划执行后的用户反馈，按日期 upsert
// swagger:model Feedback
type Feedback struct {
	BaseModel
	Date            string  `gorm:"size:10;uniqueIndex;not null" json:"date"`
	CompletionRatio float64 `gorm:"not null" json:"completionRatio"` // 0.0-1.0
	Tiredness       int     `gorm:"not null" json:"tirednessEndOfDay"`
	Notes           string  `gorm:"type:text" json:"notes,omitempty"`
}

func (Feedback) TableName() string {
	return "daily_feedback"
}

// SchemaVersion 数据库结构版本标记，供未来迁移使用
type SchemaVersion struct {
	Version       int    `gorm:"primaryKey" json:"version"`
	MigrationDate string `json:"migrationDate"`
	Description   string `json:"description"`
}

func (SchemaVersion) TableName() string {
	return "schema_version"
}
