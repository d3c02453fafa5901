package services

import (
	"fmt"
	"strings"

	"yatube/app/models"
	"yatube/app/repositories"
)

// CommentService handles business logic for comments
type CommentService struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository
	userRepo    repositories.UserRepository
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
	}
}

// AddComment attaches a comment by author to the post.
func (s *CommentService) AddComment(author *models.User, postID int, form CommentForm) (*models.Comment, error) {
	// Verify post exists
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", postID, err)
	}

	form.Text = strings.TrimSpace(form.Text)
	if err := validateForm(&form); err != nil {
		return nil, err
	}

	comment := &models.Comment{AuthorID: author.ID, Text: form.Text, Author: author}
	if err := comment.SetPost(post); err != nil {
		return nil, err
	}
	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid comment: %w", err)
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// ListPostComments retrieves all comments for a post, oldest first
func (s *CommentService) ListPostComments(postID int) ([]*models.Comment, error) {
	// Verify post exists
	if _, err := s.postRepo.GetByID(postID); err != nil {
		return nil, fmt.Errorf("post %d: %w", postID, err)
	}

	comments, err := s.commentRepo.ListByPost(postID)
	if err != nil {
		return nil, err
	}
	if err := loadCommentAuthors(s.userRepo, comments); err != nil {
		return nil, err
	}
	return comments, nil
}
