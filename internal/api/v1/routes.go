package v1

import (
	"github.com/gofiber/fiber/v2"

	"taskboard/internal/api/v1/handlers"
	"taskboard/internal/middleware"
	"taskboard/internal/token"
)

func RegisterRoutes(app *fiber.App, h *handlers.Handler, tokens *token.Service) {
	app.Get("/health", h.Health)
	app.Get("/uploads/:filename", h.ServeUpload)

	app.Get("/ws/board/:projectId", h.BoardSocketGate, h.BoardSocket())

	api := app.Group("/api/v1")

	// Auth
	api.Post("/auth/login", h.Login)
	api.Post("/auth/refresh", h.Refresh)
	authRoutes := api.Group("/auth", middleware.UseToken(tokens))
	authRoutes.Get("/me", h.Me)
	authRoutes.Put("/me", h.UpdateMe)
	authRoutes.Post("/me/avatar", h.UploadAvatar)
	authRoutes.Post("/register", middleware.RequireAdmin(), h.Register)

	// User
	userRoutes := api.Group("/users", middleware.UseToken(tokens))
	userRoutes.Get("/", h.GetAllUsers)
	userRoutes.Put("/:id", middleware.RequireAdmin(), h.UpdateUser)
	userRoutes.Delete("/:id", middleware.RequireAdmin(), h.DeleteUser)

	// Project
	projectRoutes := api.Group("/projects", middleware.UseToken(tokens))
	projectRoutes.Get("/", h.GetProjects)
	projectRoutes.Post("/", middleware.RequireAdmin(), h.CreateProject)
	projectRoutes.Get("/:id", h.GetProject)
	projectRoutes.Put("/:id", middleware.RequireAdmin(), h.UpdateProject)
	projectRoutes.Delete("/:id", middleware.RequireAdmin(), h.DeleteProject)
	projectRoutes.Get("/:id/users", h.GetProjectUsers)
	projectRoutes.Get("/:id/stats", h.GetProjectStats)

	// Membership
	membershipRoutes := api.Group("/project-users", middleware.UseToken(tokens), middleware.RequireAdmin())
	membershipRoutes.Get("/user/:userId", h.GetUserProjects)
	membershipRoutes.Post("/", h.AddProjectUser)
	membershipRoutes.Delete("/:projectId/:userId", h.RemoveProjectUser)

	// Column
	columnRoutes := api.Group("/columns", middleware.UseToken(tokens))
	columnRoutes.Get("/by-project/:projectId", h.GetColumnsByProject)
	columnRoutes.Post("/", h.CreateColumn)
	columnRoutes.Post("/reorder", h.ReorderColumns)
	columnRoutes.Put("/:id", h.UpdateColumn)
	columnRoutes.Delete("/:id", h.DeleteColumn)

	// Task
	taskRoutes := api.Group("/tasks", middleware.UseToken(tokens))
	taskRoutes.Get("/by-project/:projectId", h.GetTasksByProject)
	taskRoutes.Post("/", h.CreateTask)
	taskRoutes.Post("/move", h.MoveTask)
	taskRoutes.Get("/:id", h.GetTask)
	taskRoutes.Put("/:id", h.UpdateTask)
	taskRoutes.Delete("/:id", h.DeleteTask)

	// Comment
	commentRoutes := api.Group("/comments", middleware.UseToken(tokens))
	commentRoutes.Get("/by-task/:taskId", h.GetCommentsByTask)
	commentRoutes.Post("/", h.CreateComment)
	commentRoutes.Put("/:id", h.UpdateComment)
	commentRoutes.Delete("/:id", h.DeleteComment)

	// History
	historyRoutes := api.Group("/task-history", middleware.UseToken(tokens))
	historyRoutes.Get("/:taskId", h.GetTaskHistory)
}
