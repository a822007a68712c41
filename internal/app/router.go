package app

import (
	"prevention_edu_backend/docs"
	"prevention_edu_backend/internal/config"
	"prevention_edu_backend/internal/middleware"
	"prevention_edu_backend/internal/model"
	"prevention_edu_backend/internal/util"
	"prevention_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.NoRoute(util.NotFound)

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/skill-tags", c.skillTag.ListTags)

		// 课程浏览对游客开放
		public.GET("/courses", c.course.ListCourses)
		public.GET("/courses/:id", c.course.GetCourse)
		public.GET("/courses/:id/contents/active", c.content.ListActiveContents)
	}

	// 登录用户接口
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.GET("/users/me/dashboard", c.user.Dashboard)
		authGroup.GET("/users/me/registrations", c.user.MyRegistrations)

		// 报名生命周期
		authGroup.POST("/courses/:id/register", c.enrollment.Register)
		authGroup.DELETE("/courses/:id/unregister", c.enrollment.Unregister)
		authGroup.GET("/courses/:id/registration", c.enrollment.GetRegistration)
		authGroup.GET("/courses/:id/is-registered", c.enrollment.IsRegistered)
		authGroup.GET("/courses/:id/can-register", c.enrollment.CanRegister)
		authGroup.PATCH("/registrations/:registrationId/progress", c.enrollment.UpdateProgress)
		authGroup.POST("/registrations/:registrationId/contents/:contentId/complete", c.enrollment.CompleteContent)

		// 课程与课时管理（工作人员及以上）
		staff := authGroup.Group("")
		staff.Use(middleware.RoleMiddleware(model.Staff))
		{
			staff.POST("/courses", c.course.CreateCourse)
			staff.PUT("/courses/:id", c.course.UpdateCourse)
			staff.DELETE("/courses/:id", c.course.DeleteCourse)
			staff.PATCH("/courses/:id/toggle-status", c.course.ToggleStatus)
			staff.POST("/courses/upload-thumbnail", c.course.UploadThumbnail)

			staff.GET("/courses/:id/contents", c.content.ListContents)
			staff.POST("/courses/:id/contents", c.content.CreateContent)
			staff.GET("/courses/:id/contents/next-order", c.content.NextOrderIndex)
			staff.POST("/courses/:id/contents/reorder", c.content.ReorderContents)
			staff.GET("/contents/:id", c.content.GetContent)
			staff.PUT("/contents/:id", c.content.UpdateContent)
			staff.DELETE("/contents/:id", c.content.DeleteContent)
			staff.POST("/contents/upload-file", c.content.UploadContentFile)

			staff.GET("/courses/:id/registrations", c.enrollment.CourseRegistrations)
			staff.GET("/courses/:id/enrollment-stats", c.enrollment.EnrollmentStats)
		}

		// 管理员接口
		admin := authGroup.Group("/admin")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.PATCH("/courses/:id/approve", c.course.ApproveCourse)
			admin.GET("/skill-tags", c.skillTag.ListAllTags)
		}
	}
}
