package mock

import (
	"sort"
	"sync"

	"yatube/app/models"
	"yatube/app/repositories"
)

type UserRepository struct {
	users  map[int]*models.User
	nextID int
	mutex  sync.RWMutex
}

type GroupRepository struct {
	groups map[int]*models.Group
	nextID int
	mutex  sync.RWMutex
}

type PostRepository struct {
	posts  map[int]*models.Post
	nextID int
	mutex  sync.RWMutex
}

type CommentRepository struct {
	comments map[int]*models.Comment
	nextID   int
	mutex    sync.RWMutex
}

type FollowRepository struct {
	follows map[[2]int]*models.Follow
	mutex   sync.RWMutex
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int]*models.User), nextID: 1}
}

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{groups: make(map[int]*models.Group), nextID: 1}
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[int]*models.Post), nextID: 1}
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{comments: make(map[int]*models.Comment), nextID: 1}
}

func NewFollowRepository() *FollowRepository {
	return &FollowRepository{follows: make(map[[2]int]*models.Follow)}
}

// UserRepository implementation
func (m *UserRepository) Create(user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, u := range m.users {
		if models.NormalizeUsername(u.Username) == models.NormalizeUsername(user.Username) {
			return repositories.ErrDuplicate
		}
	}
	user.ID = m.nextID
	m.nextID++
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *UserRepository) GetByID(id int) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *UserRepository) GetByUsername(username string) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, u := range m.users {
		if models.NormalizeUsername(u.Username) == models.NormalizeUsername(username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) GetByIDs(ids []int) (map[int]*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make(map[int]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

// GroupRepository implementation
func (m *GroupRepository) Create(group *models.Group) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, g := range m.groups {
		if g.Slug == group.Slug {
			return repositories.ErrDuplicate
		}
	}
	group.ID = m.nextID
	m.nextID++
	stored := *group
	m.groups[group.ID] = &stored
	return nil
}

func (m *GroupRepository) GetByID(id int) (*models.Group, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	g, exists := m.groups[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *GroupRepository) GetBySlug(slug string) (*models.Group, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, g := range m.groups {
		if g.Slug == slug {
			cp := *g
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *GroupRepository) GetByIDs(ids []int) (map[int]*models.Group, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make(map[int]*models.Group, len(ids))
	for _, id := range ids {
		if g, ok := m.groups[id]; ok {
			cp := *g
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *GroupRepository) List() ([]*models.Group, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var groups []*models.Group
	for id := 1; id < m.nextID; id++ {
		if g, ok := m.groups[id]; ok {
			cp := *g
			groups = append(groups, &cp)
		}
	}
	return groups, nil
}

// PostRepository implementation
func (m *PostRepository) Create(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	post.ID = m.nextID
	m.nextID++
	m.posts[post.ID] = post.Record()
	return nil
}

func (m *PostRepository) GetByID(id int) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return post.Record(), nil
}

func (m *PostRepository) Update(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	m.posts[post.ID] = post.Record()
	return nil
}

func (m *PostRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *PostRepository) List(limit, offset int) ([]*models.Post, error) {
	return m.page(func(*models.Post) bool { return true }, limit, offset), nil
}

func (m *PostRepository) Count() (int, error) {
	return len(m.filter(func(*models.Post) bool { return true })), nil
}

func (m *PostRepository) ListByAuthor(authorID, limit, offset int) ([]*models.Post, error) {
	return m.page(byAuthors(authorID), limit, offset), nil
}

func (m *PostRepository) CountByAuthor(authorID int) (int, error) {
	return len(m.filter(byAuthors(authorID))), nil
}

func (m *PostRepository) ListByGroup(groupID, limit, offset int) ([]*models.Post, error) {
	return m.page(byGroup(groupID), limit, offset), nil
}

func (m *PostRepository) CountByGroup(groupID int) (int, error) {
	return len(m.filter(byGroup(groupID))), nil
}

func (m *PostRepository) ListByAuthors(authorIDs []int, limit, offset int) ([]*models.Post, error) {
	return m.page(byAuthors(authorIDs...), limit, offset), nil
}

func (m *PostRepository) CountByAuthors(authorIDs []int) (int, error) {
	return len(m.filter(byAuthors(authorIDs...))), nil
}

func (m *PostRepository) filter(keep func(*models.Post) bool) []*models.Post {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var posts []*models.Post
	for _, p := range m.posts {
		if keep(p) {
			posts = append(posts, p.Record())
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	return posts
}

func (m *PostRepository) page(keep func(*models.Post) bool, limit, offset int) []*models.Post {
	posts := m.filter(keep)
	if offset >= len(posts) {
		return []*models.Post{}
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end]
}

func byAuthors(ids ...int) func(*models.Post) bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(p *models.Post) bool { return set[p.AuthorID] }
}

func byGroup(id int) func(*models.Post) bool {
	return func(p *models.Post) bool { return p.GroupID != nil && *p.GroupID == id }
}

// CommentRepository implementation
func (m *CommentRepository) Create(comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	comment.ID = m.nextID
	m.nextID++
	m.comments[comment.ID] = comment.Record()
	return nil
}

func (m *CommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var comments []*models.Comment
	for _, comment := range m.comments {
		if comment.PostID == postID {
			comments = append(comments, comment.Record())
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (m *CommentRepository) CountByPost(postID int) (int, error) {
	comments, _ := m.ListByPost(postID)
	return len(comments), nil
}

// FollowRepository implementation
func (m *FollowRepository) Create(follow *models.Follow) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key := [2]int{follow.UserID, follow.AuthorID}
	if _, ok := m.follows[key]; !ok {
		cp := *follow
		m.follows[key] = &cp
	}
	return nil
}

func (m *FollowRepository) Delete(userID, authorID int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.follows, [2]int{userID, authorID})
	return nil
}

func (m *FollowRepository) Exists(userID, authorID int) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.follows[[2]int{userID, authorID}]
	return ok, nil
}

func (m *FollowRepository) ListFollowing(userID int) ([]int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var ids []int
	for key := range m.follows {
		if key[0] == userID {
			ids = append(ids, key[1])
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (m *FollowRepository) CountFollowing(userID int) (int, error) {
	ids, _ := m.ListFollowing(userID)
	return len(ids), nil
}

func (m *FollowRepository) CountFollowers(authorID int) (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	n := 0
	for key := range m.follows {
		if key[1] == authorID {
			n++
		}
	}
	return n, nil
}

var (
	_ repositories.UserRepository    = (*UserRepository)(nil)
	_ repositories.GroupRepository   = (*GroupRepository)(nil)
	_ repositories.PostRepository    = (*PostRepository)(nil)
	_ repositories.CommentRepository = (*CommentRepository)(nil)
	_ repositories.FollowRepository  = (*FollowRepository)(nil)
)
