package httpapi

import (
	"github.com/gin-gonic/gin"

	"sprintlite/internal/auth"
	"sprintlite/internal/rbac"
)

// Register mounts the auth, task and admin routes. authLimit throttles the credential
// endpoints; pass nil to skip it.
func Register(r gin.IRouter, h *Handlers, tokens auth.AccessVerifier, authLimit gin.HandlerFunc) {
	g := h.Gate
	if authLimit == nil {
		authLimit = func(c *gin.Context) { c.Next() }
	}

	a := r.Group("/auth")
	{
		a.POST("/login", authLimit, h.Login)
		a.POST("/signup", authLimit, h.Signup)
		a.POST("/refresh", authLimit, h.Refresh)
		a.GET("/refresh", h.RefreshGet)
		a.POST("/logout", h.Logout)
		a.GET("/me", auth.RequireAccessToken(tokens), h.Me)
	}

	api := r.Group("/api")

	t := api.Group("/tasks")
	{
		t.GET("", rbac.Require(g, rbac.ResourceTasks, rbac.ActionRead), h.ListTasks)
		t.POST("", rbac.Require(g, rbac.ResourceTasks, rbac.ActionCreate), h.CreateTask)
		t.GET("/:id", rbac.Require(g, rbac.ResourceTasks, rbac.ActionRead), h.GetTask)
		// Update and delete fall back to ownership, so the handler authorizes.
		t.PATCH("/:id", h.UpdateTask)
		t.DELETE("/:id", h.DeleteTask)

		t.GET("/:id/comments", rbac.Require(g, rbac.ResourceComments, rbac.ActionRead), h.ListComments)
		t.POST("/:id/comments", rbac.Require(g, rbac.ResourceComments, rbac.ActionCreate), h.AddComment)
		t.DELETE("/:id/comments/:commentId", h.DeleteComment)
	}

	// Reading a user record falls back to ownership, so the handler authorizes.
	api.GET("/users/:id", h.GetUser)

	adm := api.Group("/admin")
	{
		adm.GET("/users", rbac.Require(g, rbac.ResourceUsers, rbac.ActionRead), h.ListUsers)
		adm.PATCH("/users/:id/role", rbac.Require(g, rbac.ResourceAdmin, rbac.ActionUpdate), h.ChangeRole)
		adm.DELETE("/users/:id", rbac.Require(g, rbac.ResourceUsers, rbac.ActionDelete), h.DeleteUser)
		adm.GET("/stats", rbac.Require(g, rbac.ResourceAdmin, rbac.ActionRead), h.Stats)
	}
}
