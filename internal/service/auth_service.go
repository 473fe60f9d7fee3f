package service

import (
	"errors"

	"study_planner_backend/internal/config"
	"study_planner_backend/internal/model"
	"study_planner_backend/internal/repository"
	"study_planner_backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService 注册与登录
type AuthService struct {
	userRepo *repository.UserRepository
	cfg      *config.Config
	logger   *zap.Logger
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, cfg: cfg, logger: logger}
}

// RegisterInput 注册请求。user_id 可由客户端指定，缺省时生成 uuid
type RegisterInput struct {
	UserID                   string `json:"user_id"`
	Name                     string `json:"name" binding:"required"`
	Email                    string `json:"email" binding:"required,email"`
	Password                 string `json:"password" binding:"required,min=6"`
	LearningGoal             string `json:"learning_goal"`
	EducationLevel           string `json:"education_level"`
	SubjectArea              string `json:"subject_area"`
	PreferredSessionDuration int    `json:"preferred_session_duration"`
}

// AuthResult 认证结果，携带签发的 JWT
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Register(input *RegisterInput) (*AuthResult, error) {
	exists, err := s.userRepo.EmailExists(input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrEmailRegistered
	}

	userID := input.UserID
	if userID == "" {
		userID = uuid.NewString()
	} else {
		_, err := s.userRepo.FindByID(userID)
		if err == nil {
			return nil, util.ErrUserExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	duration := input.PreferredSessionDuration
	if duration <= 0 {
		duration = 60
	}
	user := &model.User{
		UserID:                   userID,
		Name:                     input.Name,
		Email:                    input.Email,
		LearningGoal:             input.LearningGoal,
		EducationLevel:           input.EducationLevel,
		SubjectArea:              input.SubjectArea,
		PreferredSessionDuration: duration,
		Password:                 string(hashed),
	}
	pref := &model.UserPreference{UserID: user.UserID}

	if err := s.userRepo.Create(user, pref); err != nil {
		return nil, err
	}

	token, err := util.GenerateJWT(user, s.cfg.JWT.Secret, s.cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户注册成功", zap.String("user_id", user.UserID))
	return &AuthResult{User: user, Token: token}, nil
}

// LoginInput 登录请求
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *AuthService) Login(input *LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(input.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.cfg.JWT.Secret, s.cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}
