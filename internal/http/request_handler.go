package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lemonhall/oa-mvp/pkg/service"
)

func (s *Server) createRequest(c *gin.Context) {
	var body service.CreateRequestInput
	if !bindJSON(c, &body) {
		return
	}
	req, err := s.requests.Create(body, CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (s *Server) listRequests(c *gin.Context) {
	items, err := s.requests.ListForViewer(CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) listMyRequests(c *gin.Context) {
	items, err := s.requests.ListMine(CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) getRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, err := s.requests.Get(id, CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (s *Server) getRequestDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := s.requests.Detail(id, CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
