package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type announcementCreateRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

func (s *Server) listAnnouncements(c *gin.Context) {
	items, err := s.announcements.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) createAnnouncement(c *gin.Context) {
	var body announcementCreateRequest
	if !bindJSON(c, &body) {
		return
	}
	announcement, err := s.announcements.Create(body.Title, body.Content, CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, announcement)
}
