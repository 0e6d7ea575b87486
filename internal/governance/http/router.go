package http

import "github.com/gin-gonic/gin"

// Register attaches governance routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	useJSONFieldNames()

	projects := rg.Group("/projects")
	projects.GET("", h.listProjects)
	projects.POST("", h.createProject)
	projects.GET("/:id", h.getProject)
	projects.PATCH("/:id", h.updateProject)
	projects.DELETE("/:id", h.deleteProject)
	projects.GET("/:id/reviews", h.listReviews)

	projects.GET("/:id/stages/:stage/approval", h.getApproval)
	projects.POST("/:id/stages/:stage/approval", h.createApproval)
	projects.POST("/:id/stages/:stage/approve", h.approveStage)

	rg.POST("/reviews", h.createReview)
	rg.GET("/reviews/:id", h.getReview)

	rg.GET("/templates", h.listTemplates)
	rg.POST("/templates", h.createTemplate)
	rg.GET("/templates/:id", h.getTemplate)
}
