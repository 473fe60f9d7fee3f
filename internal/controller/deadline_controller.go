package controller

import (
	"strconv"

	"study_planner_backend/internal/service"
	"study_planner_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DeadlineController struct {
	deadlineService *service.DeadlineService
}

func NewDeadlineController(deadlineService *service.DeadlineService) *DeadlineController {
	return &DeadlineController{deadlineService: deadlineService}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(c, "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// CreateDeadline 创建截止任务
// @Summary 创建截止任务
// @Tags deadline
// @Accept json
// @Produce json
// @Param request body service.CreateDeadlineInput true "截止任务"
// @Success 201 {object} util.Response{data=model.Deadline}
// @Failure 400 {object} util.Response
// @Router /api/deadlines [post]
func (ctrl *DeadlineController) CreateDeadline(c *gin.Context) {
	var input service.CreateDeadlineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	deadline, err := ctrl.deadlineService.CreateDeadline(&input)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Created(c, deadline)
}

// ListDeadlines 查询截止任务列表
// @Summary 查询截止任务列表
// @Description 可按状态过滤，兼容旧版状态别名 active/missed。每项附带紧迫度，按紧迫度降序
// @Tags deadline
// @Produce json
// @Param status query string false "状态过滤"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/deadlines [get]
func (ctrl *DeadlineController) ListDeadlines(c *gin.Context) {
	deadlines, err := ctrl.deadlineService.ListDeadlines(c.Query("status"))
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, deadlines)
}

// GetDeadline 查询单个截止任务
// @Summary 查询单个截止任务
// @Tags deadline
// @Produce json
// @Param id path int true "截止任务 ID"
// @Success 200 {object} util.Response{data=model.Deadline}
// @Failure 404 {object} util.Response
// @Router /api/deadlines/{id} [get]
func (ctrl *DeadlineController) GetDeadline(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deadline, err := ctrl.deadlineService.GetDeadline(id)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, deadline)
}

// UpdateStatus 更新截止任务状态
// @Summary 更新截止任务状态
// @Tags deadline
// @Produce json
// @Param id path int true "截止任务 ID"
// @Param status path string true "新状态"
// @Success 200 {object} util.Response{data=model.Deadline}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/deadlines/{id}/status/{status} [patch]
func (ctrl *DeadlineController) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	deadline, err := ctrl.deadlineService.UpdateStatus(id, c.Param("status"))
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, deadline)
}

// DeleteDeadline 删除截止任务
// @Summary 删除截止任务
// @Description 级联删除关联的任务历史记录
// @Tags deadline
// @Produce json
// @Param id path int true "截止任务 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/deadlines/{id} [delete]
func (ctrl *DeadlineController) DeleteDeadline(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := ctrl.deadlineService.DeleteDeadline(id); err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, gin.H{"id": id})
}

// GetRecommendations 按可用时间获取任务安排建议
// @Summary 获取任务安排建议
// @Description 按紧迫度从高到低贪心分配可用时间
// @Tags deadline
// @Produce json
// @Param minutes path int true "可用时间（分钟）"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/deadlines/recommendations/{minutes} [get]
func (ctrl *DeadlineController) GetRecommendations(c *gin.Context) {
	minutes, err := strconv.Atoi(c.Param("minutes"))
	if err != nil {
		util.BadRequest(c, "minutes must be an integer")
		return
	}

	recommendations, err := ctrl.deadlineService.GetRecommendations(minutes)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, recommendations)
}

// GetConflicts 检测截止冲突
// @Summary 检测截止冲突
// @Tags deadline
// @Produce json
// @Param days path int true "检测天数"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/deadlines/conflicts/{days} [get]
func (ctrl *DeadlineController) GetConflicts(c *gin.Context) {
	days, err := strconv.Atoi(c.Param("days"))
	if err != nil {
		util.BadRequest(c, "days must be an integer")
		return
	}

	conflicts, err := ctrl.deadlineService.DetectConflicts(days)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, conflicts)
}

// GetUrgent 查询紧急截止任务
// @Summary 查询紧急截止任务
// @Description 未来数天内到期的未完成任务，按紧迫度降序
// @Tags deadline
// @Produce json
// @Param days query int false "向前查看天数，默认 7"
// @Success 200 {object} util.Response
// @Router /api/deadlines/urgent [get]
func (ctrl *DeadlineController) GetUrgent(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	urgent, err := ctrl.deadlineService.GetUrgentDeadlines(days)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, urgent)
}

// GetProgress 查询截止任务进度
// @Summary 查询截止任务进度
// @Tags deadline
// @Produce json
// @Param id path int true "截止任务 ID"
// @Success 200 {object} util.Response{data=service.Progress}
// @Failure 404 {object} util.Response
// @Router /api/deadlines/{id}/progress [get]
func (ctrl *DeadlineController) GetProgress(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	progress, err := ctrl.deadlineService.GetProgress(id)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, progress)
}

// LinkTask 关联已完成任务
// @Summary 关联已完成任务
// @Description 把一次完成的学习任务记入截止任务的历史
// @Tags deadline
// @Accept json
// @Produce json
// @Param id path int true "截止任务 ID"
// @Param request body service.LinkTaskInput true "任务记录"
// @Success 201 {object} util.Response{data=model.TaskHistory}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/deadlines/{id}/history [post]
func (ctrl *DeadlineController) LinkTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input service.LinkTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	history, err := ctrl.deadlineService.LinkTask(id, &input)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Created(c, history)
}

// GetHistory 查询截止任务的历史记录
// @Summary 查询截止任务的历史记录
// @Tags deadline
// @Produce json
// @Param id path int true "截止任务 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/deadlines/{id}/history [get]
func (ctrl *DeadlineController) GetHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	history, err := ctrl.deadlineService.GetHistory(id)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, history)
}

// GetProductivity 区间产出统计
// @Summary 区间产出统计
// @Description 汇总区间内完成的任务与学习会话
// @Tags deadline
// @Produce json
// @Param start_date query string true "起始日期 YYYY-MM-DD"
// @Param end_date query string true "结束日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=service.ProductivityReport}
// @Failure 400 {object} util.Response
// @Router /api/deadlines/productivity [get]
func (ctrl *DeadlineController) GetProductivity(c *gin.Context) {
	report, err := ctrl.deadlineService.GetProductivityReport(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, report)
}

// GetStatistics 截止任务统计
// @Summary 截止任务统计
// @Tags deadline
// @Produce json
// @Success 200 {object} util.Response{data=service.Statistics}
// @Router /api/deadlines/statistics [get]
func (ctrl *DeadlineController) GetStatistics(c *gin.Context) {
	stats, err := ctrl.deadlineService.GetStatistics()
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, stats)
}
