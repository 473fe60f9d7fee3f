package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// swagger:model
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DateLayout 计划与截止日期统一使用的日期格式
const DateLayout = "2006-01-02"

// ParseDate 解析 YYYY-MM-DD 日期，兼容带时间部分的 ISO 格式（截断到日期）
func ParseDate(s string) (time.Time, error) {
	if idx := strings.IndexByte(s, 'T'); idx >= 0 {
		s = s[:idx]
	}
	return time.Parse(DateLayout, s)
}
