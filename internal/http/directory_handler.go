package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lemonhall/oa-mvp/pkg/service"
)

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.directory.ListUsers()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) createUser(c *gin.Context) {
	var body service.CreateUserInput
	if !bindJSON(c, &body) {
		return
	}
	user, err := s.directory.CreateUser(body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) updateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body service.UserUpdate
	if !bindJSON(c, &body) {
		return
	}
	user, err := s.directory.UpdateUser(id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type passwordUpdateRequest struct {
	Password string `json:"password" binding:"required"`
}

func (s *Server) setUserPassword(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body passwordUpdateRequest
	if !bindJSON(c, &body) {
		return
	}
	if err := s.directory.SetPassword(id, body.Password); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) listDepartments(c *gin.Context) {
	depts, err := s.directory.ListDepartments()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, depts)
}

func (s *Server) createDepartment(c *gin.Context) {
	var body nameRequest
	if !bindJSON(c, &body) {
		return
	}
	dept, err := s.directory.CreateDepartment(body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dept)
}

type positionCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) listPositions(c *gin.Context) {
	positions, err := s.directory.ListPositions()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, positions)
}

func (s *Server) createPosition(c *gin.Context) {
	var body positionCreateRequest
	if !bindJSON(c, &body) {
		return
	}
	position, err := s.directory.CreatePosition(body.Name, body.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, position)
}
