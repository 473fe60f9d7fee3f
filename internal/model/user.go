package model

import "time"

// User 用户档案，user_id 为自然主键
// swagger:model User
type User struct {
	UserID                   string    `gorm:"primaryKey;size:64" json:"userId"`
	Name                     string    `gorm:"size:100;not null" json:"name"`
	Email                    string    `gorm:"size:100;uniqueIndex;default:null" json:"email,omitempty"`
	LearningGoal             string    `gorm:"size:255" json:"learningGoal,omitempty"`
	EducationLevel           string    `gorm:"size:50" json:"educationLevel,omitempty"`
	SubjectArea              string    `gorm:"size:100" json:"subjectArea,omitempty"`
	PreferredSessionDuration int       `gorm:"default:60" json:"preferredSessionDuration"`
	Password                 string    `gorm:"size:100" json:"-"`
	CreatedAt                time.Time `json:"createdAt"`
	UpdatedAt                time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// UserPreference 学习偏好，注册时初始化默认值
type UserPreference struct {
	UserID                string `gorm:"primaryKey;size:64" json:"userId"`
	PreferredStartTime    string `gorm:"size:8" json:"preferredStartTime,omitempty"`
	PreferredEndTime      string `gorm:"size:8" json:"preferredEndTime,omitempty"`
	BestStudyHours        string `gorm:"type:text" json:"bestStudyHours,omitempty"` // JSON 数组
	BreakFrequencyMinutes int    `gorm:"default:5" json:"breakFrequencyMinutes"`
	FocusLevel            int    `gorm:"default:3" json:"focusLevel"` // 1-5
	SubjectsOfInterest    string `gorm:"type:text" json:"subjectsOfInterest,omitempty"`
}

func (UserPreference) TableName() string {
	return "user_preferences"
}

// TimeTracking 计时会话。clock_out_time 为空表示会话进行中，
// 每个用户同一时刻至多一个进行中的会话（由 clock-in 事务保证）
type TimeTracking struct {
	TrackingID       string     `gorm:"primaryKey;size:64" json:"trackingId"`
	UserID           string     `gorm:"size:64;index;not null" json:"userId"`
	TaskName         string     `gorm:"size:255;not null" json:"taskName"`
	Date             string     `gorm:"size:10;index;not null" json:"date"`
	ClockInTime      time.Time  `gorm:"not null" json:"clockInTime"`
	ClockOutTime     *time.Time `json:"clockOutTime,omitempty"`
	DurationMinutes  int        `json:"durationMinutes,omitempty"`
	DifficultyRating int        `json:"difficultyRating,omitempty"` // 1-10
	Notes            string     `gorm:"type:text" json:"notes,omitempty"`
}

func (TimeTracking) TableName() string {
	return "time_tracking"
}

// UserAnalytics 个人分析结果缓存
type UserAnalytics struct {
	UserID             string    `gorm:"primaryKey;size:64" json:"userId"`
	AvgSessionDuration float64   `json:"avgSessionDuration"`
	MostProductiveHour string    `gorm:"size:8" json:"mostProductiveHour"`
	ProductivityScore  float64   `json:"productivityScore"`
	TotalStudyHours    float64   `json:"totalStudyHours"`
	FavoriteSubjects   string    `gorm:"type:text" json:"favoriteSubjects"` // JSON 数组
	LastUpdated        time.Time `json:"lastUpdated"`
}

func (UserAnalytics) TableName() string {
	return "user_analytics"
}
