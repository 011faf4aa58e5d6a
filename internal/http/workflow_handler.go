package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lemonhall/oa-mvp/pkg/service"
)

type workflowCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	RequestType string `json:"request_type" binding:"required"`
	IsActive    bool   `json:"is_active"`
}

func (s *Server) listWorkflows(c *gin.Context) {
	workflows, err := s.workflows.List(c.Query("request_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workflows)
}

func (s *Server) createWorkflow(c *gin.Context) {
	var body workflowCreateRequest
	if !bindJSON(c, &body) {
		return
	}
	wf, err := s.workflows.Create(body.Name, body.RequestType, body.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wf)
}

func (s *Server) getWorkflow(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	wf, err := s.workflows.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

func (s *Server) updateWorkflow(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body service.WorkflowUpdate
	if !bindJSON(c, &body) {
		return
	}
	wf, err := s.workflows.Update(id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

type nodeCreateRequest struct {
	StepOrder  int    `json:"step_order" binding:"required"`
	PositionID int64  `json:"position_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
}

func (s *Server) addWorkflowNode(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body nodeCreateRequest
	if !bindJSON(c, &body) {
		return
	}
	node, err := s.workflows.AddNode(id, body.StepOrder, body.PositionID, body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

func (s *Server) removeWorkflowNode(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	nodeID, ok := pathID(c, "node_id")
	if !ok {
		return
	}
	if err := s.workflows.RemoveNode(id, nodeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
