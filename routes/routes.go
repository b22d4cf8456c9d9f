package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strawberrymilktea0604/HealthSync-sub001/controllers"
	"github.com/strawberrymilktea0604/HealthSync-sub001/middlewares"
	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

// Deps carries everything the router needs. Nil controllers leave their
// route group unregistered, which keeps tests small.
type Deps struct {
	JWTSecret   string
	CORSOrigins []string
	Permissions middlewares.PermissionChecker
	Users       middlewares.UserChecker

	Auth           *controllers.AuthController
	Profile        *controllers.ProfileController
	Goals          *controllers.GoalController
	Workouts       *controllers.WorkoutController
	Nutrition      *controllers.NutritionController
	Chat           *controllers.ChatController
	Notifications  *controllers.NotificationController
	Admin          *controllers.AdminController
	UserManagement *controllers.UserManagementController
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(), middlewares.CORS(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	authed := middlewares.AuthMiddleware(d.JWTSecret, d.Users)

	if h := d.Auth; h != nil {
		auth := api.Group("/auth")
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		auth.POST("/change-password", authed, h.ChangePassword)
		auth.GET("/me", authed, h.Me)
		auth.GET("/google/login", h.GoogleLogin)
		auth.GET("/google/callback", h.GoogleCallback)
	}

	if h := d.Profile; h != nil {
		p := api.Group("/userprofile", authed)
		p.GET("", h.Get)
		p.PUT("", h.Update)
		p.POST("/avatar", h.UploadAvatar)
	}

	if h := d.Goals; h != nil {
		g := api.Group("/goals", authed)
		g.GET("", h.List)
		g.POST("", h.Create)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
		g.POST("/:id/progress", h.AddProgress)
		g.GET("/:id/progress", h.ListProgress)
		g.DELETE("/:id/progress/:recordId", h.DeleteProgress)
	}

	if h := d.Workouts; h != nil {
		w := api.Group("/workout", authed)
		w.GET("/exercises", h.ListExercises)
		w.GET("/summary", h.Summary)
		w.GET("", h.List)
		w.POST("", h.Create)
		w.GET("/:id", h.Get)
		w.PUT("/:id", h.Update)
		w.DELETE("/:id", h.Delete)
	}

	if h := d.Nutrition; h != nil {
		n := api.Group("/nutrition", authed)
		n.GET("/foods", h.SearchFoods)
		n.POST("/foods/recognize", h.RecognizeFood)
		n.GET("/summary", h.DailySummary)
		n.GET("", h.List)
		n.POST("", h.Create)
		n.GET("/:id", h.Get)
		n.PUT("/:id", h.Update)
		n.DELETE("/:id", h.Delete)
	}

	if h := d.Chat; h != nil {
		ch := api.Group("/chat", authed)
		ch.POST("", h.Ask)
		ch.GET("/history", h.History)
		ch.DELETE("/history", h.ClearHistory)
	}

	if h := d.Notifications; h != nil {
		nt := api.Group("/notifications", authed)
		nt.GET("", h.List)
		nt.POST("/:id/read", h.MarkRead)
		nt.POST("/devices", h.RegisterDevice)
		nt.POST("/toggle", h.Toggle)
		nt.GET("/ws", h.Stream)
	}

	admin := api.Group("/admin", authed)
	perm := func(code string) gin.HandlerFunc {
		return middlewares.RequirePermission(d.Permissions, code)
	}

	if h := d.Admin; h != nil {
		admin.GET("/users", perm(models.PermUserRead), h.ListUsers)
		admin.GET("/users/:id", perm(models.PermUserRead), h.GetUser)
		admin.PUT("/users/:id/status", perm(models.PermUserUpdate), h.SetUserStatus)
		admin.DELETE("/users/:id", perm(models.PermUserDelete), h.DeleteUser)

		admin.POST("/exercises", perm(models.PermExerciseCreate), h.CreateExercise)
		admin.PUT("/exercises/:id", perm(models.PermExerciseUpdate), h.UpdateExercise)
		admin.DELETE("/exercises/:id", perm(models.PermExerciseDelete), h.DeleteExercise)

		admin.POST("/foods", perm(models.PermFoodCreate), h.CreateFood)
		admin.PUT("/foods/:id", perm(models.PermFoodUpdate), h.UpdateFood)
		admin.DELETE("/foods/:id", perm(models.PermFoodDelete), h.DeleteFood)

		admin.GET("/action-logs", perm(models.PermActionLogRead), h.ListActionLogs)
		admin.GET("/statistics", perm(models.PermStatisticsRead), h.Statistics)
		admin.GET("/statistics/registrations", perm(models.PermStatisticsRead), h.Registrations)
	}

	if h := d.UserManagement; h != nil {
		um := admin.Group("/usermanagement")
		um.GET("/roles", perm(models.PermRoleRead), h.ListRoles)
		um.POST("/roles", perm(models.PermRoleManage), h.CreateRole)
		um.PUT("/roles/:id/permissions", perm(models.PermRoleManage), h.SetRolePermissions)
		um.DELETE("/roles/:id", perm(models.PermRoleManage), h.DeleteRole)
		um.GET("/permissions", perm(models.PermRoleRead), h.ListPermissions)
		um.GET("/users/:id/roles", perm(models.PermRoleRead), h.UserRoles)
		um.POST("/users/:id/roles", perm(models.PermRoleManage), h.AssignRole)
		um.DELETE("/users/:id/roles/:roleId", perm(models.PermRoleManage), h.RemoveRole)
	}

	return r
}
