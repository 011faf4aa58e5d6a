package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/service"
)

type processTypeCreateRequest struct {
	Code           string                `json:"code" binding:"required"`
	Name           string                `json:"name" binding:"required"`
	Description    string                `json:"description"`
	RequiresAmount bool                  `json:"requires_amount"`
	IsActive       *bool                 `json:"is_active"`
	Fields         []models.ProcessField `json:"fields"`
}

func (s *Server) listProcessTypes(c *gin.Context) {
	items, err := s.processes.List(false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) listAllProcessTypes(c *gin.Context) {
	items, err := s.processes.List(true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) createProcessType(c *gin.Context) {
	var body processTypeCreateRequest
	if !bindJSON(c, &body) {
		return
	}
	active := true
	if body.IsActive != nil {
		active = *body.IsActive
	}
	pt, err := s.processes.Create(models.ProcessType{
		Code:           body.Code,
		Name:           body.Name,
		Description:    body.Description,
		RequiresAmount: body.RequiresAmount,
		IsActive:       active,
		Fields:         body.Fields,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pt)
}

func (s *Server) updateProcessType(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body service.ProcessTypeUpdate
	if !bindJSON(c, &body) {
		return
	}
	pt, err := s.processes.Update(id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pt)
}
