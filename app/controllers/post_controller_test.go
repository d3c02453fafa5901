package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"yatube/app/services"
	"yatube/app/views"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagesUseCorrectTemplate(t *testing.T) {
	h := newHarness(t)
	author := h.user(t, "auth")
	group := h.group(t, "test-slug")
	post := h.post(t, author, group, "Тестовый пост")

	templates := map[string]string{
		"/":                        views.Index,
		"/group/test-slug/":        views.GroupList,
		"/profile/auth/":           views.Profile,
		postURL(post.ID):           views.PostDetail,
		"/create/":                 views.CreatePost,
		postURL(post.ID) + "edit/": views.CreatePost,
		"/follow/":                 views.Follow,
	}

	for target, template := range templates {
		t.Run(target, func(t *testing.T) {
			w := h.get(t, author, target)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, template, h.renderer.name)
		})
	}
}

func TestPagesContext(t *testing.T) {
	h := newHarness(t)
	author := h.user(t, "auth")
	group := h.group(t, "test-slug")
	post := h.post(t, author, group, "Тестовый пост")

	t.Run("index", func(t *testing.T) {
		h.get(t, nil, "/?page=1")
		require.Contains(t, h.renderer.data, "page_obj")
		page := h.renderer.data["page_obj"].(*services.Page)
		require.Len(t, page.Posts, 1)
		assert.Equal(t, "Тестовый пост", page.Posts[0].Text)
		assert.Equal(t, "auth", page.Posts[0].Author.Username)
		assert.Equal(t, group.Slug, page.Posts[0].Group.Slug)
	})

	t.Run("group list", func(t *testing.T) {
		h.get(t, nil, "/group/test-slug/")
		assert.Contains(t, h.renderer.data, "page_obj")
		assert.Contains(t, h.renderer.data, "group")
	})

	t.Run("profile", func(t *testing.T) {
		h.get(t, nil, "/profile/auth/")
		assert.Contains(t, h.renderer.data, "page_obj")
		assert.Contains(t, h.renderer.data, "author")
		assert.Equal(t, false, h.renderer.data["following"])
	})

	t.Run("post detail", func(t *testing.T) {
		h.get(t, nil, postURL(post.ID))
		assert.Contains(t, h.renderer.data, "post")
		assert.Equal(t, 1, h.renderer.data["author_posts_count"])
	})

	t.Run("create", func(t *testing.T) {
		h.get(t, author, "/create/")
		assert.Contains(t, h.renderer.data, "form")
		assert.NotContains(t, h.renderer.data, "is_edit")
	})

	t.Run("edit", func(t *testing.T) {
		h.get(t, author, postURL(post.ID)+"edit/")
		assert.Contains(t, h.renderer.data, "form")
		assert.Equal(t, post.ID, h.renderer.data["post_id"])
		assert.Equal(t, true, h.renderer.data["is_edit"])
		form := h.renderer.data["form"].(services.PostForm)
		assert.Equal(t, "Тестовый пост", form.Text)
		assert.Equal(t, strconv.Itoa(group.ID), form.Group)
	})
}

func TestPostInSingleGroup(t *testing.T) {
	h := newHarness(t)
	author := h.user(t, "auth")
	h.group(t, "test-slug")
	other := h.group(t, "other-slug")
	h.post(t, author, other, "В другой группе")

	h.get(t, nil, "/group/test-slug/")
	page := h.renderer.data["page_obj"].(*services.Page)
	assert.Empty(t, page.Posts)
}

func TestPaginator(t *testing.T) {
	h := newHarness(t)
	author := h.user(t, "auth")
	group := h.group(t, "test-slug")
	h.manyPosts(t, author, group, 13)

	for _, target := range []string{"/", "/group/test-slug/", "/profile/auth/"} {
		t.Run(target, func(t *testing.T) {
			h.get(t, nil, target)
			assert.Len(t, h.renderer.data["page_obj"].(*services.Page).Posts, 10)

			h.get(t, nil, target+"?page=2")
			assert.Len(t, h.renderer.data["page_obj"].(*services.Page).Posts, 3)

			h.get(t, nil, target+"?page=99")
			page := h.renderer.data["page_obj"].(*services.Page)
			assert.Equal(t, 2, page.Number)
		})
	}
}

func TestIndexCache(t *testing.T) {
	h := newHarness(t)
	author := h.user(t, "auth")
	post := h.post(t, author, nil, "Пост для кеша")

	first := h.get(t, nil, "/")
	assert.Contains(t, first.Body.String(), "Пост для кеша")

	require.NoError(t, h.posts.Delete(post.ID))
	for _, target := range []string{"/", "/?page=1", "/?page=01", "/?page=%201", "/?page=abc"} {
		cached := h.get(t, nil, target)
		assert.Equal(t, first.Body.String(), cached.Body.String(), target)
	}

	require.NoError(t, h.pageCache.Clear(context.Background()))
	fresh := h.get(t, nil, "/")
	assert.NotContains(t, fresh.Body.String(), "Пост для кеша")
}

func TestNotFound(t *testing.T) {
	h := newHarness(t)

	for _, target := range []string{"/unexisting_page/", "/posts/999/", "/group/nope/", "/profile/ghost/"} {
		t.Run(target, func(t *testing.T) {
			w := h.get(t, nil, target)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, views.NotFound, h.renderer.name)
		})
	}
}

func TestCreatePost(t *testing.T) {
	h := newHarness(t)
	author := h.user(t, "auth")
	group := h.group(t, "test-slug")

	t.Run("valid form redirects to profile", func(t *testing.T) {
		before := h.postCount(t)
		w := h.postForm(t, author, "/create/", url.Values{
			"text":  {"Новый пост"},
			"group": {strconv.Itoa(group.ID)},
		})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/profile/auth/", w.Header().Get("Location"))
		assert.Equal(t, before+1, h.postCount(t))

		posts, err := h.posts.List(1, 0)
		require.NoError(t, err)
		assert.Equal(t, "Новый пост", posts[0].Text)
		assert.Equal(t, group.ID, *posts[0].GroupID)
		assert.Equal(t, author.ID, posts[0].AuthorID)
	})

	t.Run("with image", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("text", "Пост с картинкой"))
		fw, err := mw.CreateFormFile("image", "small.gif")
		require.NoError(t, err)
		_, err = fw.Write(smallGIF)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/create/", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := h.do(t, author, req)
		assert.Equal(t, http.StatusFound, w.Code)

		posts, err := h.posts.List(1, 0)
		require.NoError(t, err)
		assert.Regexp(t, `^posts/.+\.gif$`, posts[0].Image)
	})

	t.Run("invalid form is shown again", func(t *testing.T) {
		before := h.postCount(t)
		w := h.postForm(t, author, "/create/", url.Values{"text": {""}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, views.CreatePost, h.renderer.name)
		fe := h.renderer.data["errors"].(services.FormErrors)
		assert.True(t, fe.Has("text"))
		assert.Equal(t, before, h.postCount(t))
	})

	t.Run("anonymous is sent to login", func(t *testing.T) {
		before := h.postCount(t)
		w := h.postForm(t, nil, "/create/", url.Values{"text": {"аноним"}})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/login/?next=/create/", w.Header().Get("Location"))
		assert.Equal(t, before, h.postCount(t))
	})
}

func TestEditPost(t *testing.T) {
	h := newHarness(t)
	author := h.user(t, "auth")
	stranger := h.user(t, "stranger")
	group := h.group(t, "test-slug")
	post := h.post(t, author, nil, "Исходный текст")
	editURL := postURL(post.ID) + "edit/"

	t.Run("author edits", func(t *testing.T) {
		w := h.postForm(t, author, editURL, url.Values{
			"text":  {"Изменённый текст"},
			"group": {strconv.Itoa(group.ID)},
		})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, postURL(post.ID), w.Header().Get("Location"))

		stored, err := h.posts.GetByID(post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Изменённый текст", stored.Text)
		assert.Equal(t, group.ID, *stored.GroupID)
	})

	t.Run("non author is sent to the post", func(t *testing.T) {
		w := h.get(t, stranger, editURL)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, postURL(post.ID), w.Header().Get("Location"))

		w = h.postForm(t, stranger, editURL, url.Values{"text": {"взлом"}})
		assert.Equal(t, http.StatusFound, w.Code)
		stored, _ := h.posts.GetByID(post.ID)
		assert.Equal(t, "Изменённый текст", stored.Text)
	})

	t.Run("anonymous is sent to login", func(t *testing.T) {
		w := h.get(t, nil, editURL)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/login/?next="+editURL, w.Header().Get("Location"))
	})

	t.Run("invalid group", func(t *testing.T) {
		w := h.postForm(t, author, editURL, url.Values{"text": {"текст"}, "group": {"999"}})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, h.renderer.data["is_edit"])
		assert.True(t, h.renderer.data["errors"].(services.FormErrors).Has("group"))
	})
}

func TestDeletePost(t *testing.T) {
	h := newHarness(t)
	author := h.user(t, "auth")
	stranger := h.user(t, "stranger")
	post := h.post(t, author, nil, "Удаляемый пост")
	deleteURL := postURL(post.ID) + "delete/"

	w := h.postForm(t, stranger, deleteURL, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, 1, h.postCount(t))

	w = h.postForm(t, author, deleteURL, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/auth/", w.Header().Get("Location"))
	assert.Equal(t, 0, h.postCount(t))
}

func TestPostAPI(t *testing.T) {
	h := newHarness(t)
	author := h.user(t, "auth")
	group := h.group(t, "test-slug")
	h.manyPosts(t, author, group, 3)

	t.Run("list", func(t *testing.T) {
		w := h.get(t, nil, "/api/posts/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var page struct {
			Count   int `json:"count"`
			Results []struct {
				Text   string `json:"text"`
				Author struct {
					Username string `json:"username"`
				} `json:"author"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Equal(t, 3, page.Count)
		assert.Equal(t, "auth", page.Results[0].Author.Username)
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("create", func(t *testing.T) {
		w := h.postJSON(t, author, "/api/posts/", `{"text":"Через API","group":`+strconv.Itoa(group.ID)+`}`)
		assert.Equal(t, http.StatusCreated, w.Code)

		var created struct {
			ID      int    `json:"id"`
			Text    string `json:"text"`
			GroupID int    `json:"group_id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotZero(t, created.ID)
		assert.Equal(t, group.ID, created.GroupID)
	})

	t.Run("invalid", func(t *testing.T) {
		w := h.postJSON(t, author, "/api/posts/", `{"text":""}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"text"`)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := h.postJSON(t, nil, "/api/posts/", `{"text":"x"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// countingReader counts how much of a request body a handler consumed.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// oversizedPostBody is a multipart post whose image is far beyond the
// harness upload limit.
func oversizedPostBody(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "Пост с огромной картинкой"))
	fw, err := mw.CreateFormFile("image", "huge.gif")
	require.NoError(t, err)
	_, err = fw.Write(smallGIF)
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte{0}, 4<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestOversizedUpload(t *testing.T) {
	h := newHarness(t)
	author := h.user(t, "auth")
	post := h.post(t, author, nil, "Исходный текст")
	limit := int64(testUploadLimit + formOverhead)

	t.Run("streamed body stops at the limit", func(t *testing.T) {
		body, contentType := oversizedPostBody(t)
		total := int64(body.Len())
		counter := &countingReader{r: body}
		req := httptest.NewRequest(http.MethodPost, "/create/", counter)
		req.Header.Set("Content-Type", contentType)
		req.ContentLength = -1

		w := h.do(t, author, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, views.CreatePost, h.renderer.name)
		fe := h.renderer.data["errors"].(services.FormErrors)
		assert.True(t, fe.Has("image"))
		assert.LessOrEqual(t, counter.n, limit+1)
		assert.Less(t, counter.n, total)
		assert.Equal(t, 1, h.postCount(t))
	})

	t.Run("declared length is refused unread", func(t *testing.T) {
		body, contentType := oversizedPostBody(t)
		counter := &countingReader{r: body}
		req := httptest.NewRequest(http.MethodPost, "/create/", counter)
		req.Header.Set("Content-Type", contentType)
		req.ContentLength = int64(body.Len())

		w := h.do(t, author, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, counter.n)
		assert.Equal(t, 1, h.postCount(t))
	})

	t.Run("edit keeps the post", func(t *testing.T) {
		body, contentType := oversizedPostBody(t)
		req := httptest.NewRequest(http.MethodPost, postURL(post.ID)+"edit/", body)
		req.Header.Set("Content-Type", contentType)

		w := h.do(t, author, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, h.renderer.data["is_edit"])
		assert.True(t, h.renderer.data["errors"].(services.FormErrors).Has("image"))
		stored, err := h.posts.GetByID(post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Исходный текст", stored.Text)
	})

	t.Run("api answers 413", func(t *testing.T) {
		body, contentType := oversizedPostBody(t)
		req := httptest.NewRequest(http.MethodPost, "/api/posts/", body)
		req.Header.Set("Content-Type", contentType)
		req.ContentLength = -1

		w := h.do(t, author, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, 1, h.postCount(t))
	})
}

// smallGIF is a 2x1 pixel gif.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}
