package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"study_planner_backend/internal/config"
	"study_planner_backend/internal/controller"
	"study_planner_backend/internal/ml"
	"study_planner_backend/internal/repository"
	"study_planner_backend/internal/service"
	"study_planner_backend/pkg/database"
	"study_planner_backend/pkg/logger"
	"study_planner_backend/pkg/monitoring"
	"study_planner_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 汇聚全部依赖，手工装配
type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB

	tracerProvider *sdktrace.TracerProvider

	HealthController   *controller.HealthController
	AuthController     *controller.AuthController
	UserController     *controller.UserController
	PlanController     *controller.PlanController
	CalendarController *controller.CalendarController
	DeadlineController *controller.DeadlineController
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	monitoring.Init()

	app := &App{Config: cfg, DB: db}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("study-planner", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Warn("链路追踪初始化失败，继续启动", zap.Error(err))
		} else {
			app.tracerProvider = tp
		}
	}

	// 模型制品缺失时服务仍可启动，规划接口返回需先训练的错误
	models, err := ml.Load(cfg.Models.Dir)
	if err != nil {
		logger.Log.Warn("预测模型制品未加载", zap.String("dir", cfg.Models.Dir), zap.Error(err))
		models = nil
	}

	storage, err := service.NewStorageProvider(&cfg.Storage)
	if err != nil {
		return nil, err
	}

	// 仓储层
	planRepo := repository.NewPlanRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	deadlineRepo := repository.NewDeadlineRepository(db)
	historyRepo := repository.NewTaskHistoryRepository(db)
	sessionRepo := repository.NewStudySessionRepository(db)
	userRepo := repository.NewUserRepository(db)
	trackingRepo := repository.NewTrackingRepository(db)

	// 服务层
	deadlineSvc := service.NewDeadlineService(deadlineRepo, historyRepo, sessionRepo, logger.Log)
	plannerSvc := service.NewPlannerService(models, planRepo, sessionRepo, deadlineSvc, logger.Log)
	calendarSvc := service.NewCalendarService(planRepo, feedbackRepo, storage, logger.Log)
	authSvc := service.NewAuthService(userRepo, cfg, logger.Log)
	userSvc := service.NewUserService(userRepo, trackingRepo, logger.Log)

	// 控制器
	app.HealthController = controller.NewHealthController(db)
	app.AuthController = controller.NewAuthController(authSvc, userSvc)
	app.UserController = controller.NewUserController(userSvc)
	app.PlanController = controller.NewPlanController(plannerSvc)
	app.CalendarController = controller.NewCalendarController(calendarSvc)
	app.DeadlineController = controller.NewDeadlineController(deadlineSvc)

	app.Router = app.setupRouter()
	return app, nil
}

// Run 启动 HTTP 服务并优雅停机
func (a *App) Run() error {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("收到退出信号，开始停机")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Warn("链路追踪关闭失败", zap.Error(err))
		}
	}

	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Log.Info("停机完成")
	return nil
}
