package controller

import (
	"study_planner_backend/internal/service"
	"study_planner_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CalendarController struct {
	calendarService *service.CalendarService
}

func NewCalendarController(calendarService *service.CalendarService) *CalendarController {
	return &CalendarController{calendarService: calendarService}
}

// GetPlan 查询某日计划
// @Summary 查询某日计划
// @Description 返回计划内容及当日反馈（如有）
// @Tags calendar
// @Produce json
// @Param date path string true "日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=service.PlanWithFeedback}
// @Failure 404 {object} util.Response
// @Router /api/plans/{date} [get]
func (ctrl *CalendarController) GetPlan(c *gin.Context) {
	plan, err := ctrl.calendarService.GetPlanWithFeedback(c.Param("date"))
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, plan)
}

// ListPlans 按日期区间查询计划
// @Summary 按日期区间查询计划
// @Description 双闭区间，按日期升序返回
// @Tags calendar
// @Produce json
// @Param start_date query string true "起始日期 YYYY-MM-DD"
// @Param end_date query string true "结束日期 YYYY-MM-DD"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/plans [get]
func (ctrl *CalendarController) ListPlans(c *gin.Context) {
	plans, err := ctrl.calendarService.ListPlans(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, plans)
}

// DeletePlan 删除某日计划及其反馈
// @Summary 删除某日计划
// @Tags calendar
// @Produce json
// @Param date path string true "日期 YYYY-MM-DD"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/plans/{date} [delete]
func (ctrl *CalendarController) DeletePlan(c *gin.Context) {
	date := c.Param("date")
	if err := ctrl.calendarService.DeletePlan(date); err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, gin.H{"date": date})
}

// SubmitFeedback 提交当日反馈
// @Summary 提交当日反馈
// @Description 反馈必须关联已存在的计划，同日重复提交覆盖旧值
// @Tags calendar
// @Accept json
// @Produce json
// @Param request body service.FeedbackInput true "反馈内容"
// @Success 200 {object} util.Response{data=model.Feedback}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/feedback [post]
func (ctrl *CalendarController) SubmitFeedback(c *gin.Context) {
	var input service.FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	feedback, err := ctrl.calendarService.SubmitFeedback(&input)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, feedback)
}

// GetFeedback 查询某日反馈
// @Summary 查询某日反馈
// @Tags calendar
// @Produce json
// @Param date path string true "日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=model.Feedback}
// @Failure 404 {object} util.Response
// @Router /api/feedback/{date} [get]
func (ctrl *CalendarController) GetFeedback(c *gin.Context) {
	feedback, err := ctrl.calendarService.GetFeedback(c.Param("date"))
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, feedback)
}

// ListFeedback 按日期区间查询反馈
// @Summary 按日期区间查询反馈
// @Tags calendar
// @Produce json
// @Param start_date query string true "起始日期 YYYY-MM-DD"
// @Param end_date query string true "结束日期 YYYY-MM-DD"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/feedback [get]
func (ctrl *CalendarController) ListFeedback(c *gin.Context) {
	feedback, err := ctrl.calendarService.ListFeedback(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, feedback)
}

// Export 导出区间内的计划与反馈
// @Summary 导出计划与反馈
// @Description 导出为 JSON 文件并写入配置的存储后端，返回文件位置
// @Tags calendar
// @Produce json
// @Param start_date query string true "起始日期 YYYY-MM-DD"
// @Param end_date query string true "结束日期 YYYY-MM-DD"
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/export [post]
func (ctrl *CalendarController) Export(c *gin.Context) {
	location, err := ctrl.calendarService.ExportRange(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, gin.H{"location": location})
}
