package repositories

import "yatube/app/models"

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByIDs(ids []int) (map[int]*models.User, error)
}

// GroupRepository defines the interface for group data access
type GroupRepository interface {
	Create(group *models.Group) error
	GetByID(id int) (*models.Group, error)
	GetBySlug(slug string) (*models.Group, error)
	GetByIDs(ids []int) (map[int]*models.Group, error)
	List() ([]*models.Group, error)
}

// PostRepository defines the interface for post data access.
// Every listing is ordered newest first.
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id int) (*models.Post, error)
	Update(post *models.Post) error
	Delete(id int) error
	List(limit, offset int) ([]*models.Post, error)
	Count() (int, error)
	ListByAuthor(authorID, limit, offset int) ([]*models.Post, error)
	CountByAuthor(authorID int) (int, error)
	ListByGroup(groupID, limit, offset int) ([]*models.Post, error)
	CountByGroup(groupID int) (int, error)
	ListByAuthors(authorIDs []int, limit, offset int) ([]*models.Post, error)
	CountByAuthors(authorIDs []int) (int, error)
}

// CommentRepository defines the interface for comment data access.
// Comments of a post are listed oldest first.
type CommentRepository interface {
	Create(comment *models.Comment) error
	ListByPost(postID int) ([]*models.Comment, error)
	CountByPost(postID int) (int, error)
}

// FollowRepository defines the interface for follow data access
type FollowRepository interface {
	Create(follow *models.Follow) error
	Delete(userID, authorID int) error
	Exists(userID, authorID int) (bool, error)
	ListFollowing(userID int) ([]int, error)
	CountFollowing(userID int) (int, error)
	CountFollowers(authorID int) (int, error)
}
