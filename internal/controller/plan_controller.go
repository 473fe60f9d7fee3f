package controller

import (
	"study_planner_backend/internal/service"
	"study_planner_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PlanController struct {
	plannerService *service.PlannerService
}

func NewPlanController(plannerService *service.PlannerService) *PlanController {
	return &PlanController{plannerService: plannerService}
}

// GeneratePlan 生成学习计划
// @Summary 生成学习计划
// @Description 根据任务、用时、难度和精力水平生成当日学习计划并持久化，同日重复生成会覆盖旧计划
// @Tags plan
// @Accept json
// @Produce json
// @Param request body service.GeneratePlanInput true "计划请求"
// @Success 200 {object} util.Response{data=service.GeneratedPlan}
// @Failure 400 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/plan [post]
func (ctrl *PlanController) GeneratePlan(c *gin.Context) {
	var input service.GeneratePlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	plan, err := ctrl.plannerService.GeneratePlan(&input)
	if err != nil {
		util.HandleServiceError(c, err)
		return
	}
	util.Success(c, plan)
}
