package controller

import (
	"net/http"

	"study_planner_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	db *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db}
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务与数据库连接状态
// @Tags health
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/health [get]
func (ctrl *HealthController) Health(c *gin.Context) {
	sqlDB, err := ctrl.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		util.Error(c, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	util.Success(c, gin.H{"status": "ok"})
}
