package controller

import (
	"study_planner_backend/internal/service"
	"study_planner_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	userService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{userService: userService}
}

func currentUserID(c *gin.Context) (string, bool) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return "", false
	}
	return claims.UserID, true
}

// GetProfile 查询用户档案
// @Summary 查询用户档案
// @Tags user
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.Profile}
// @Failure 401 {object} util.Response
// @Router /api/user/profile [get]
func (ctrl *UserController) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	profile, err := ctrl.userService.GetProfile(userID)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, profile)
}

// UpdateProfile 更新用户档案
// @Summary 更新用户档案
// @Tags user
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.UpdateProfileInput true "档案字段"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response
// @Router /api/user/profile [put]
func (ctrl *UserController) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input service.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	user, err := ctrl.userService.UpdateProfile(userID, &input)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, user)
}

// ClockIn 开始计时
// @Summary 开始计时
// @Description 同一用户同一时刻最多一个进行中的会话
// @Tags tracking
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.ClockInInput true "任务信息"
// @Success 201 {object} util.Response{data=model.TimeTracking}
// @Failure 400 {object} util.Response
// @Router /api/tracking/clock-in [post]
func (ctrl *UserController) ClockIn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input service.ClockInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	session, err := ctrl.userService.ClockIn(userID, &input)
	if err != nil {
		if err == util.ErrSessionAlreadyOpen {
			util.BadRequest(c, err.Error())
			return
		}
		util.HandleServiceError(c, err)
		return
	}
	util.Created(c, session)
}

// ClockOut 结束计时
// @Summary 结束计时
// @Description 结束进行中的会话并计算时长，未指定 tracking_id 时结束当前会话
// @Tags tracking
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.ClockOutInput true "结束信息"
// @Success 200 {object} util.Response{data=model.TimeTracking}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/tracking/clock-out [post]
func (ctrl *UserController) ClockOut(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input service.ClockOutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	session, err := ctrl.userService.ClockOut(userID, &input)
	if err != nil {
		if err == util.ErrSessionClosed {
			util.BadRequest(c, err.Error())
			return
		}
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, session)
}

// ActiveSession 查询进行中的会话
// @Summary 查询进行中的会话
// @Tags tracking
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.TimeTracking}
// @Failure 404 {object} util.Response
// @Router /api/tracking/active [get]
func (ctrl *UserController) ActiveSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	session, err := ctrl.userService.ActiveSession(userID)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, session)
}

// TrackingHistory 查询计时历史
// @Summary 查询计时历史
// @Description 近 30 天的计时记录，按打卡时间降序
// @Tags tracking
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/tracking/history [get]
func (ctrl *UserController) TrackingHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	history, err := ctrl.userService.TrackingHistory(userID)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, history)
}

// Analytics 个人学习分析
// @Summary 个人学习分析
// @Description 基于已结束的计时会话重算并缓存分析结果
// @Tags user
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.UserAnalytics}
// @Router /api/user/analytics [get]
func (ctrl *UserController) Analytics(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	analytics, err := ctrl.userService.ComputeAnalytics(userID)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, analytics)
}

// Insights 学习建议
// @Summary 学习建议
// @Description 由个人分析结果生成可读的学习建议
// @Tags user
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/user/insights [get]
func (ctrl *UserController) Insights(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	insights, err := ctrl.userService.GetInsights(userID)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, insights)
}
