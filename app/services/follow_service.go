package services

import (
	"fmt"

	"yatube/app/models"
	"yatube/app/repositories"
)

// FollowService manages subscriptions between users and the feed built from them.
type FollowService struct {
	followRepo repositories.FollowRepository
	userRepo   repositories.UserRepository
	postRepo   repositories.PostRepository
	groupRepo  repositories.GroupRepository
	perPage    int
}

func NewFollowService(
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	postRepo repositories.PostRepository,
	groupRepo repositories.GroupRepository,
	perPage int,
) *FollowService {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		postRepo:   postRepo,
		groupRepo:  groupRepo,
		perPage:    perPage,
	}
}

// Follow subscribes user to the author named username.
// Following oneself yields ErrFollowSelf; following twice is a no-op.
func (s *FollowService) Follow(user *models.User, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	if author.ID == user.ID {
		return author, ErrFollowSelf
	}

	follow := &models.Follow{UserID: user.ID, AuthorID: author.ID}
	follow.BeforeCreate()
	if err := follow.Validate(); err != nil {
		return author, fmt.Errorf("invalid follow: %w", err)
	}
	if err := s.followRepo.Create(follow); err != nil {
		return author, fmt.Errorf("create follow: %w", err)
	}
	return author, nil
}

// Unfollow removes the subscription of user to the author named username.
func (s *FollowService) Unfollow(user *models.User, username string) (*models.User, error) {
	author, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	if err := s.followRepo.Delete(user.ID, author.ID); err != nil {
		return author, fmt.Errorf("delete follow: %w", err)
	}
	return author, nil
}

// IsFollowing reports whether user follows author. An anonymous user follows nobody.
func (s *FollowService) IsFollowing(user *models.User, author *models.User) (bool, error) {
	if user == nil || author == nil || user.ID == author.ID {
		return false, nil
	}
	return s.followRepo.Exists(user.ID, author.ID)
}

// Stats returns how many followers author has and how many authors they follow.
func (s *FollowService) Stats(author *models.User) (followers, following int, err error) {
	if followers, err = s.followRepo.CountFollowers(author.ID); err != nil {
		return 0, 0, err
	}
	if following, err = s.followRepo.CountFollowing(author.ID); err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

// Feed returns a page of posts written by the authors user follows.
func (s *FollowService) Feed(user *models.User, pageNumber string) (*Page, error) {
	authorIDs, err := s.followRepo.ListFollowing(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	count, err := s.postRepo.CountByAuthors(authorIDs)
	if err != nil {
		return nil, fmt.Errorf("count feed: %w", err)
	}
	page := NewPage(pageNumber, count, s.perPage)
	if count == 0 {
		return page, nil
	}

	posts, err := s.postRepo.ListByAuthors(authorIDs, page.PerPage, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	if err := loadRelations(s.userRepo, s.groupRepo, posts); err != nil {
		return nil, err
	}
	page.Posts = posts
	return page, nil
}
