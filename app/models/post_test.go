package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestPostValidation(t *testing.T) {
	tests := []struct {
		name    string
		post    *Post
		wantErr bool
	}{
		{
			name: "valid post",
			post: &Post{
				Text:     "Тестовый пост",
				AuthorID: 1,
				PubDate:  time.Now(),
			},
			wantErr: false,
		},
		{
			name: "valid post in group",
			post: &Post{
				Text:     "Тестовый пост",
				AuthorID: 1,
				GroupID:  intPtr(3),
				PubDate:  time.Now(),
			},
			wantErr: false,
		},
		{
			name: "empty text",
			post: &Post{
				AuthorID: 1,
				PubDate:  time.Now(),
			},
			wantErr: true,
		},
		{
			name: "missing author",
			post: &Post{
				Text:    "no author",
				PubDate: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "invalid group id",
			post: &Post{
				Text:     "bad group",
				AuthorID: 1,
				GroupID:  intPtr(0),
				PubDate:  time.Now(),
			},
			wantErr: true,
		},
		{
			name: "zero pub date",
			post: &Post{
				Text:     "text",
				AuthorID: 1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.post.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostBeforeCreate(t *testing.T) {
	post := &Post{Text: "Test Post", AuthorID: 1}

	assert.True(t, post.PubDate.IsZero())
	post.BeforeCreate()
	assert.False(t, post.PubDate.IsZero())
}

func TestPostString(t *testing.T) {
	post := &Post{Text: "Тестовый пост длиннее пятнадцати символов"}
	assert.Equal(t, "Тестовый пост д", post.String())

	short := &Post{Text: "коротко"}
	assert.Equal(t, "коротко", short.String())
}

func TestPostSetGroup(t *testing.T) {
	post := &Post{}
	post.SetGroup(&Group{ID: 7, Title: "g"})
	assert.Equal(t, 7, *post.GroupID)
	assert.NotNil(t, post.Group)

	post.SetGroup(nil)
	assert.Nil(t, post.GroupID)
	assert.Nil(t, post.Group)
}

func TestPostRecordDropsRelations(t *testing.T) {
	post := &Post{
		ID:       1,
		Text:     "text",
		Author:   &User{ID: 1},
		Group:    &Group{ID: 2},
		Comments: []*Comment{{ID: 1}},
	}
	rec := post.Record()
	assert.Nil(t, rec.Author)
	assert.Nil(t, rec.Group)
	assert.Nil(t, rec.Comments)
	assert.NotNil(t, post.Author, "original must keep its relations")
}

func TestPostIsAuthoredBy(t *testing.T) {
	post := &Post{AuthorID: 4}
	assert.True(t, post.IsAuthoredBy(&User{ID: 4}))
	assert.False(t, post.IsAuthoredBy(&User{ID: 5}))
	assert.False(t, post.IsAuthoredBy(nil))
}

func TestPostAddComment(t *testing.T) {
	post := &Post{ID: 9}
	assert.Error(t, post.AddComment(nil))

	c := &Comment{Text: "hi"}
	assert.NoError(t, post.AddComment(c))
	assert.Equal(t, 9, c.PostID)
	assert.Len(t, post.Comments, 1)
}
