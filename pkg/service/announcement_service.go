package service

import (
	"strings"

	"github.com/lemonhall/oa-mvp/pkg/apperrors"
	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/storage"
	"github.com/pkg/errors"
)

// AnnouncementService posts and lists company-wide notices.
type AnnouncementService struct {
	store  storage.Store
	logger Logger
}

func NewAnnouncementService(store storage.Store, logger Logger) *AnnouncementService {
	return &AnnouncementService{store: store, logger: logger}
}

func (s *AnnouncementService) Create(title, content string, author models.User) (models.Announcement, error) {
	if strings.TrimSpace(title) == "" {
		return models.Announcement{}, apperrors.NewValidationError("title", "title is required")
	}
	a := models.Announcement{
		Title:           title,
		Content:         content,
		CreatedByUserID: author.ID,
	}
	id, err := s.store.SaveAnnouncement(a)
	if err != nil {
		return models.Announcement{}, errors.Wrap(err, "save announcement")
	}
	a.ID = id
	s.logger.Infof("User %d posted announcement %d", author.ID, id)
	return a, nil
}

func (s *AnnouncementService) List() ([]models.Announcement, error) {
	return s.store.ListAnnouncements()
}
