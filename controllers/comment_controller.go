package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quillpost-api/middleware"
	"quillpost-api/services"
	"quillpost-api/utils"
)

type CommentController struct {
	comments *services.CommentService
}

func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (cc *CommentController) CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	comment, err := cc.comments.AddComment(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (cc *CommentController) GetComments(c *gin.Context) {
	comments, err := cc.comments.GetPostComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (cc *CommentController) DeleteComment(c *gin.Context) {
	if err := cc.comments.DeleteComment(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	utils.SendSuccess(c, "Comment deleted successfully", nil)
}
