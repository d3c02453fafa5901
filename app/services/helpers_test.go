package services

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"yatube/app/media"
	"yatube/app/models"
	"yatube/app/repositories/mock"

	"github.com/stretchr/testify/require"
)

type testRepos struct {
	users    *mock.UserRepository
	groups   *mock.GroupRepository
	posts    *mock.PostRepository
	comments *mock.CommentRepository
	follows  *mock.FollowRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		users:    mock.NewUserRepository(),
		groups:   mock.NewGroupRepository(),
		posts:    mock.NewPostRepository(),
		comments: mock.NewCommentRepository(),
		follows:  mock.NewFollowRepository(),
	}
}

func (r *testRepos) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "x"}
	u.BeforeCreate()
	require.NoError(t, r.users.Create(u))
	return u
}

func (r *testRepos) group(t *testing.T, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Группа " + slug, Slug: slug, Description: "Описание"}
	require.NoError(t, r.groups.Create(g))
	return g
}

func (r *testRepos) post(t *testing.T, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{AuthorID: author.ID, Text: text}
	p.SetGroup(group)
	p.BeforeCreate()
	require.NoError(t, r.posts.Create(p))
	return p
}

func (r *testRepos) manyPosts(t *testing.T, author *models.User, group *models.Group, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		r.post(t, author, group, fmt.Sprintf("Тестовый пост %d", i))
	}
}

// fakeImages records saved uploads instead of touching disk.
type fakeImages struct {
	saved   []string
	removed []string
	err     error
}

func (f *fakeImages) Save(filename string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	path := "posts/" + filename
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakeImages) Remove(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

var errNotImage = fmt.Errorf("%w: detected text/plain", media.ErrNotImage)

func isFormError(err error) (FormErrors, bool) {
	var fe FormErrors
	ok := errors.As(err, &fe)
	return fe, ok
}
