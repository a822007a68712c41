package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prevention_edu_backend/internal/config"
	"prevention_edu_backend/internal/controller"
	"prevention_edu_backend/internal/repository"
	"prevention_edu_backend/internal/service"
	"prevention_edu_backend/pkg/database"
	"prevention_edu_backend/pkg/logger"
	"prevention_edu_backend/pkg/monitoring"
	"prevention_edu_backend/pkg/security"
	"prevention_edu_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user         *repository.UserRepository
	course       *repository.CourseRepository
	content      *repository.CourseContentRepository
	registration *repository.CourseRegistrationRepository
	skillTag     *repository.SkillTagRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	skillTag   *service.SkillTagService
	course     *service.CourseService
	content    *service.CourseContentService
	enrollment *service.EnrollmentService
}

type controllers struct {
	auth       *controller.AuthController
	course     *controller.CourseController
	content    *controller.CourseContentController
	enrollment *controller.EnrollmentController
	user       *controller.UserController
	skillTag   *controller.SkillTagController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		course:       repository.NewCourseRepository(db),
		content:      repository.NewCourseContentRepository(db),
		registration: repository.NewCourseRegistrationRepository(db),
		skillTag:     repository.NewSkillTagRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.skillTag = service.NewSkillTagService(repos.skillTag)
	s.course = service.NewCourseService(repos.course, repos.content, repos.user, repos.registration, s.skillTag)
	s.content = service.NewCourseContentService(repos.content, repos.course)
	s.enrollment = service.NewEnrollmentService(repos.registration, repos.course, repos.content, repos.user, rdb)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		course:     controller.NewCourseController(s.course, s.storage),
		content:    controller.NewCourseContentController(s.content, s.storage),
		enrollment: controller.NewEnrollmentController(s.enrollment),
		user:       controller.NewUserController(s.enrollment),
		skillTag:   controller.NewSkillTagController(s.skillTag),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("prevention-edu", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if storageCfg := cfg.StorageSettings(); storageCfg.Type == "local" {
		router.Static("/uploads", storageCfg.LocalPath)
	}

	return app
}

// ApplyConfig 热应用运行中可变更的配置项（JWT 密钥与本地存储路径）；
// 服务端口、数据库等连接类配置仍需重启生效。
// 存储 provider 在启动时选定，切换存储类型或远端凭证同样需要重启
func (a *App) ApplyConfig(newCfg *config.Config) {
	prev := a.Config.StorageSettings()
	a.Config.ApplyHotSettings(newCfg)

	if prev.Type != newCfg.Storage.Type {
		logger.Log.Warn("storage type changed in config, restart required to take effect",
			zap.String("active", prev.Type),
			zap.String("configured", newCfg.Storage.Type))
	}
	logger.Log.Info("configuration reloaded",
		zap.String("storageType", newCfg.Storage.Type))
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
