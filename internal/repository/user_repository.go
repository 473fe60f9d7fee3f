package repository

import (
	"errors"

	"study_planner_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Create 创建用户并初始化默认偏好设置
func (r *UserRepository) Create(user *model.User, pref *model.UserPreference) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(pref).Error
	})
}

func (r *UserRepository) FindByID(userID string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("user_id = ?", userID).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

// EmailExists 邮箱是否已被占用
func (r *UserRepository) EmailExists(email string) (bool, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) FindPreference(userID string) (*model.UserPreference, error) {
	var pref model.UserPreference
	err := r.DB.Where("user_id = ?", userID).First(&pref).Error
	return &pref, err
}

func (r *UserRepository) UpdatePreference(pref *model.UserPreference) error {
	return r.DB.Save(pref).Error
}
