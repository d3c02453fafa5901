package services

import (
	"errors"
	"fmt"
	"strings"

	"yatube/app/models"
	"yatube/app/repositories"
)

// GroupService manages the groups posts can be filed under.
type GroupService struct {
	groupRepo repositories.GroupRepository
}

func NewGroupService(groupRepo repositories.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

// CreateGroup validates and stores a group; slugs must be unique.
func (s *GroupService) CreateGroup(title, slug, description string) (*models.Group, error) {
	group := &models.Group{
		Title:       strings.TrimSpace(title),
		Slug:        strings.TrimSpace(slug),
		Description: strings.TrimSpace(description),
	}
	if err := group.Validate(); err != nil {
		return nil, formErrorsFrom(err)
	}
	if err := s.groupRepo.Create(group); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			fe := FormErrors{}
			fe.Add("slug", "Group with this slug already exists.")
			return nil, fe
		}
		return nil, fmt.Errorf("create group: %w", err)
	}
	return group, nil
}

func (s *GroupService) ListGroups() ([]*models.Group, error) {
	return s.groupRepo.List()
}

// GetGroup looks a group up by slug.
func (s *GroupService) GetGroup(slug string) (*models.Group, error) {
	group, err := s.groupRepo.GetBySlug(slug)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", slug, err)
	}
	return group, nil
}
