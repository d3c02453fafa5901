package services

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"yatube/app/media"
	"yatube/app/models"
	"yatube/app/repositories"
)

// ImageStore persists uploaded images and returns their media path.
type ImageStore interface {
	Save(filename string, r io.Reader) (string, error)
	Remove(path string) error
}

// PostService handles business logic for blog posts
type PostService struct {
	postRepo    repositories.PostRepository
	commentRepo repositories.CommentRepository
	userRepo    repositories.UserRepository
	groupRepo   repositories.GroupRepository
	images      ImageStore
	perPage     int
}

// NewPostService creates a new PostService
func NewPostService(
	postRepo repositories.PostRepository,
	commentRepo repositories.CommentRepository,
	userRepo repositories.UserRepository,
	groupRepo repositories.GroupRepository,
	images ImageStore,
	perPage int,
) *PostService {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		groupRepo:   groupRepo,
		images:      images,
		perPage:     perPage,
	}
}

// Index returns a page of every post, newest first.
func (s *PostService) Index(pageNumber string) (*Page, error) {
	count, err := s.postRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	page := NewPage(pageNumber, count, s.perPage)
	posts, err := s.postRepo.List(page.PerPage, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return s.fill(page, posts)
}

// GroupPosts returns the group identified by slug and a page of its posts.
func (s *PostService) GroupPosts(slug, pageNumber string) (*models.Group, *Page, error) {
	group, err := s.groupRepo.GetBySlug(slug)
	if err != nil {
		return nil, nil, fmt.Errorf("group %q: %w", slug, err)
	}
	count, err := s.postRepo.CountByGroup(group.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("count group posts: %w", err)
	}
	page := NewPage(pageNumber, count, s.perPage)
	posts, err := s.postRepo.ListByGroup(group.ID, page.PerPage, page.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("list group posts: %w", err)
	}
	page, err = s.fill(page, posts)
	return group, page, err
}

// Profile returns the author identified by username and a page of their posts.
func (s *PostService) Profile(username, pageNumber string) (*models.User, *Page, error) {
	author, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, nil, fmt.Errorf("user %q: %w", username, err)
	}
	count, err := s.postRepo.CountByAuthor(author.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("count author posts: %w", err)
	}
	page := NewPage(pageNumber, count, s.perPage)
	posts, err := s.postRepo.ListByAuthor(author.ID, page.PerPage, page.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("list author posts: %w", err)
	}
	page, err = s.fill(page, posts)
	return author, page, err
}

// GetPost retrieves a post by ID with its author, group and comments.
func (s *PostService) GetPost(id int) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", id, err)
	}
	if err := loadRelations(s.userRepo, s.groupRepo, []*models.Post{post}); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	if err := loadCommentAuthors(s.userRepo, comments); err != nil {
		return nil, err
	}
	post.Comments = comments

	return post, nil
}

// AuthorPostCount reports how many posts an author has written.
func (s *PostService) AuthorPostCount(authorID int) (int, error) {
	return s.postRepo.CountByAuthor(authorID)
}

// CreatePost validates the form and stores a new post written by author.
func (s *PostService) CreatePost(author *models.User, form PostForm) (*models.Post, error) {
	post := &models.Post{AuthorID: author.ID, Author: author}
	if err := s.applyForm(post, &form); err != nil {
		return nil, err
	}
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("invalid post: %w", err)
	}

	if err := s.postRepo.Create(post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// UpdatePost applies the form to the post if editor is its author.
// ErrForbidden is returned for anyone else.
func (s *PostService) UpdatePost(editor *models.User, id int, form PostForm) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", id, err)
	}
	if !post.IsAuthoredBy(editor) {
		return post, ErrForbidden
	}

	if err := s.applyForm(post, &form); err != nil {
		return post, err
	}
	if err := post.Validate(); err != nil {
		return post, fmt.Errorf("invalid post: %w", err)
	}

	if err := s.postRepo.Update(post); err != nil {
		return post, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

// DeletePost removes a post and its comments if editor is its author.
func (s *PostService) DeletePost(editor *models.User, id int) error {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return fmt.Errorf("post %d: %w", id, err)
	}
	if !post.IsAuthoredBy(editor) {
		return ErrForbidden
	}
	if err := s.postRepo.Delete(id); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	if post.Image != "" && s.images != nil {
		if err := s.images.Remove(post.Image); err != nil {
			return fmt.Errorf("remove image: %w", err)
		}
	}
	return nil
}

// FormFor prefills a form from an existing post.
func FormFor(post *models.Post) PostForm {
	form := PostForm{Text: post.Text}
	if post.GroupID != nil {
		form.Group = strconv.Itoa(*post.GroupID)
	}
	return form
}

// applyForm validates the form and copies it onto post. The image is
// stored only once every other field is valid.
func (s *PostService) applyForm(post *models.Post, form *PostForm) error {
	form.normalize()

	fe := FormErrors{}
	if err := validateForm(form); err != nil {
		errors.As(err, &fe)
	}

	var group *models.Group
	if form.Group != "" {
		group = s.lookupGroup(form.Group)
		if group == nil {
			fe.Add("group", "Select a valid choice. That choice is not one of the available choices.")
		}
	}
	if len(fe) > 0 {
		return fe
	}

	if form.Image != nil && s.images != nil {
		path, err := s.images.Save(form.Image.Filename, form.Image.Body)
		switch {
		case errors.Is(err, media.ErrNotImage), errors.Is(err, media.ErrTooLarge):
			fe.Add("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
			return fe
		case err != nil:
			return fmt.Errorf("save image: %w", err)
		}
		post.Image = path
	}

	post.Text = form.Text
	post.SetGroup(group)
	return nil
}

func (s *PostService) lookupGroup(raw string) *models.Group {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	group, err := s.groupRepo.GetByID(id)
	if err != nil {
		return nil
	}
	return group
}

func (s *PostService) fill(page *Page, posts []*models.Post) (*Page, error) {
	if err := loadRelations(s.userRepo, s.groupRepo, posts); err != nil {
		return nil, err
	}
	page.Posts = posts
	return page, nil
}

// loadRelations attaches authors and groups to posts with one batched
// lookup per relation.
func loadRelations(users repositories.UserRepository, groups repositories.GroupRepository, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	authorIDs := make([]int, 0, len(posts))
	groupIDs := make([]int, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
		if p.GroupID != nil {
			groupIDs = append(groupIDs, *p.GroupID)
		}
	}

	authors, err := users.GetByIDs(authorIDs)
	if err != nil {
		return fmt.Errorf("load authors: %w", err)
	}
	var byID map[int]*models.Group
	if len(groupIDs) > 0 {
		if byID, err = groups.GetByIDs(groupIDs); err != nil {
			return fmt.Errorf("load groups: %w", err)
		}
	}

	for _, p := range posts {
		p.Author = authors[p.AuthorID]
		if p.GroupID != nil {
			p.Group = byID[*p.GroupID]
		}
	}
	return nil
}

func loadCommentAuthors(users repositories.UserRepository, comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]int, len(comments))
	for i, c := range comments {
		ids[i] = c.AuthorID
	}
	authors, err := users.GetByIDs(ids)
	if err != nil {
		return fmt.Errorf("load comment authors: %w", err)
	}
	for _, c := range comments {
		c.Author = authors[c.AuthorID]
	}
	return nil
}
