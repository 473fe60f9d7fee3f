package repository

import (
	"errors"
	"time"

	"study_planner_backend/internal/model"
	"study_planner_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TrackingRepository struct {
	DB *gorm.DB
}

func NewTrackingRepository(db *gorm.DB) *TrackingRepository {
	return &TrackingRepository{DB: db}
}

// CreateSession 开始计时。同一用户同时最多一个未结束会话，
// 检查和插入在同一事务内完成
func (r *TrackingRepository) CreateSession(session *model.TimeTracking) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var open model.TimeTracking
		err := tx.Where("user_id = ? AND clock_out_time IS NULL", session.UserID).
			First(&open).Error
		if err == nil {
			return util.ErrSessionAlreadyOpen
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(session).Error
	})
}

func (r *TrackingRepository) FindByID(trackingID string) (*model.TimeTracking, error) {
	var session model.TimeTracking
	err := r.DB.Where("tracking_id = ?", trackingID).First(&session).Error
	return &session, err
}

// FindOpenByUser 用户当前未结束的会话
func (r *TrackingRepository) FindOpenByUser(userID string) (*model.TimeTracking, error) {
	var session model.TimeTracking
	err := r.DB.Where("user_id = ? AND clock_out_time IS NULL", userID).
		First(&session).Error
	return &session, err
}

func (r *TrackingRepository) Update(session *model.TimeTracking) error {
	return r.DB.Save(session).Error
}

// HistorySince 某日期之后的会话记录，按打卡时间降序
func (r *TrackingRepository) HistorySince(userID, startDate string) ([]model.TimeTracking, error) {
	var sessions []model.TimeTracking
	err := r.DB.Where("user_id = ? AND date >= ?", userID, startDate).
		Order("clock_in_time DESC").
		Find(&sessions).Error
	return sessions, err
}

// ClosedSessions 用户所有已结束的会话，分析用
func (r *TrackingRepository) ClosedSessions(userID string) ([]model.TimeTracking, error) {
	var sessions []model.TimeTracking
	err := r.DB.Where("user_id = ? AND clock_out_time IS NOT NULL", userID).
		Order("clock_in_time ASC").
		Find(&sessions).Error
	return sessions, err
}

// TaskCount 任务名及其出现次数
type TaskCount struct {
	TaskName string
	Count    int64
}

// TopTasks 用户最常学习的任务，按次数降序取前 limit 个
func (r *TrackingRepository) TopTasks(userID string, limit int) ([]TaskCount, error) {
	var rows []TaskCount
	err := r.DB.Model(&model.TimeTracking{}).
		Select("task_name, COUNT(*) as count").
		Where("user_id = ? AND clock_out_time IS NOT NULL", userID).
		Group("task_name").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// SaveAnalytics 写入或覆盖用户分析缓存
func (r *TrackingRepository) SaveAnalytics(analytics *model.UserAnalytics) error {
	analytics.LastUpdated = time.Now()
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"avg_session_duration", "most_productive_hour", "productivity_score",
			"total_study_hours", "favorite_subjects", "last_updated",
		}),
	}).Create(analytics).Error
}

func (r *TrackingRepository) FindAnalytics(userID string) (*model.UserAnalytics, error) {
	var analytics model.UserAnalytics
	err := r.DB.Where("user_id = ?", userID).First(&analytics).Error
	return &analytics, err
}
