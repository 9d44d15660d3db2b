package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/service"
)

// Routes bundles the handlers mounted by Register.
type Routes struct {
	Auth     *AuthHandler
	Classes  *ClassHandler
	Students *StudentHandler
	Schools  *SchoolHandler
	Teachers *TeacherHandler
	Metrics  *MetricsHandler
	Tokens   *service.TokenService
}

// Register mounts probes at the engine root and the API under prefix.
func Register(r *gin.Engine, prefix string, h Routes) {
	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(prefix)
	authn := middleware.JWT(h.Tokens)
	staffOnly := middleware.RequirePrincipal(models.PrincipalStaff)

	auth := api.Group("/auth")
	auth.POST("/teacher/login", h.Auth.LoginStaff)
	auth.POST("/student/login", h.Auth.LoginLearner)
	auth.POST("/change-password", authn, h.Auth.ChangePassword)
	auth.GET("/verify", authn, h.Auth.Verify)
	auth.POST("/teacher/register", authn, middleware.RequireStaffRole(models.StaffRoleAdmin), h.Auth.RegisterStaff)

	classes := api.Group("/classes", authn, staffOnly)
	classes.GET("", h.Classes.List)
	classes.POST("", h.Classes.Create)
	classes.GET("/meta/professions", h.Classes.Professions)
	classes.GET("/:id", h.Classes.Get)
	classes.PUT("/:id", h.Classes.Update)
	classes.DELETE("/:id", h.Classes.Delete)
	classes.GET("/:id/students", h.Classes.Students)
	classes.GET("/:id/roster", h.Classes.Roster)

	students := api.Group("/students", authn, staffOnly)
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)
	students.PUT("/:id/assign-class", h.Students.AssignClass)
	students.POST("/:id/login", h.Students.CreateLogin)

	schools := api.Group("/schools", authn, staffOnly)
	schools.GET("", h.Schools.List)
	schools.GET("/:id", h.Schools.Get)
	schools.POST("", h.Schools.Create)
	schools.PUT("/:id", h.Schools.Update)
	schools.DELETE("/:id", h.Schools.Delete)

	teachers := api.Group("/teachers", authn, staffOnly)
	teachers.GET("/profile", h.Teachers.Profile)
	teachers.PUT("/profile", h.Teachers.UpdateProfile)
	teachers.GET("/classes", h.Teachers.Classes)
	teachers.GET("/students", h.Teachers.Students)
	teachers.GET("/dashboard", h.Teachers.Dashboard)
}
