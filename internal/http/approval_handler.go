package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lemonhall/oa-mvp/pkg/models"
)

type decisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Comment  string `json:"comment"`
}

func (s *Server) listPendingApprovals(c *gin.Context) {
	items, err := s.requests.ListPending(CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) decide(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body decisionRequest
	if !bindJSON(c, &body) {
		return
	}
	req, err := s.requests.Decide(id, CurrentUser(c), models.Decision(body.Decision), body.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
