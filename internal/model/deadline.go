package model

import "fmt"

type DeadlineStatus string

const (
	DeadlineNotStarted DeadlineStatus = "not_started"
	DeadlineInProgress DeadlineStatus = "in_progress"
	DeadlineCompleted  DeadlineStatus = "completed"
	DeadlineOverdue    DeadlineStatus = "overdue"
)

// ParseDeadlineStatus 解析状态字符串，仅在输入边界接受旧版别名
// （旧客户端使用 active/missed），内部一律使用规范枚举
func ParseDeadlineStatus(s string) (DeadlineStatus, error) {
	switch s {
	case "not_started", "in_progress", "completed", "overdue":
		return DeadlineStatus(s), nil
	case "active":
		return DeadlineInProgress, nil
	case "missed":
		return DeadlineOverdue, nil
	default:
		return "", fmt.Errorf("invalid status %q, must be one of: not_started, in_progress, completed, overdue", s)
	}
}

type DeadlineType string

const (
	DeadlineAssignment DeadlineType = "assignment"
	DeadlineExam       DeadlineType = "exam"
	DeadlineProject    DeadlineType = "project"
	DeadlineOther      DeadlineType = "other"
)

func ParseDeadlineType(s string) (DeadlineType, error) {
	switch s {
	case "assignment", "exam", "project", "other":
		return DeadlineType(s), nil
	default:
		return "", fmt.Errorf("invalid type %q, must be one of: assignment, exam, project, other", s)
	}
}

// Deadline 截止任务
// swagger:model Deadline
type Deadline struct {
	BaseModel
	Title         string         `gorm:"size:255;not null" json:"title"`
	Type          DeadlineType   `gorm:"size:20;index;not null" json:"type"`
	DueDate       string         `gorm:"size:10;index;not null" json:"dueDate"` // YYYY-MM-DD
	EstimatedTime int            `gorm:"not null" json:"estimatedTime"`         // 分钟
	Description   string         `gorm:"type:text" json:"description,omitempty"`
	Status        DeadlineStatus `gorm:"size:20;index;default:'not_started'" json:"status"`
}

func (Deadline) TableName() string {
	return "deadlines"
}

// TaskHistory 已完成任务记录，追加式日志；deadline_id 为弱引用，
// 删除截止任务时级联删除对应历史
type TaskHistory struct {
	BaseModel
	TaskName         string `gorm:"size:255;index;not null" json:"taskName"`
	DeadlineID       *uint  `gorm:"index" json:"deadlineId,omitempty"`
	TimeSpent        int    `gorm:"not null" json:"timeSpent"` // 分钟
	DifficultyActual int    `gorm:"not null" json:"difficultyActual"`
	CompletedDate    string `gorm:"size:32;index;not null" json:"completedDate"`
}

func (TaskHistory) TableName() string {
	return "task_history"
}

// StudySession 学习会话日志，供生产力统计使用
type StudySession struct {
	BaseModel
	Date           string  `gorm:"size:10;index;not null" json:"date"`
	Tasks          string  `gorm:"type:text;not null" json:"tasks"` // 逗号分隔的任务名
	EnergyLevel    int     `gorm:"not null" json:"energyLevel"`     // 1-10
	CompletionRate float64 `gorm:"not null" json:"completionRate"`  // 0.0-1.0
}

func (StudySession) TableName() string {
	return "study_sessions"
}
