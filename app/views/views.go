// Package views renders the embedded html templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
	"unicode"

	"yatube/app/media"

	"github.com/dustin/go-humanize"
)

//go:embed templates
var files embed.FS

// Page templates, named by their path under templates/.
const (
	Index      = "posts/index.html"
	GroupList  = "posts/group_list.html"
	Profile    = "posts/profile.html"
	PostDetail = "posts/post_detail.html"
	CreatePost = "posts/create_post.html"
	Follow     = "posts/follow.html"
	Signup     = "users/signup.html"
	Login      = "users/login.html"
	LoggedOut  = "users/logged_out.html"
	NotFound   = "core/404.html"
)

var pageNames = []string{
	Index, GroupList, Profile, PostDetail, CreatePost, Follow,
	Signup, Login, LoggedOut, NotFound,
}

// Data is the context a page is rendered with.
type Data map[string]interface{}

// Templates holds one parsed set per page, each sharing the layout and includes.
type Templates struct {
	pages map[string]*template.Template
}

func Load() (*Templates, error) {
	base, err := template.New("base").Funcs(Funcs()).ParseFS(files,
		"templates/layout.html",
		"templates/includes/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	t := &Templates{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		page, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := page.ParseFS(files, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		t.pages[name] = page
	}
	return t, nil
}

// MustLoad is Load for program start-up and tests.
func MustLoad() *Templates {
	t, err := Load()
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes the page's layout into w.
func (t *Templates) Render(w io.Writer, name string, data Data) error {
	page, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return page.ExecuteTemplate(w, "layout", data)
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"naturaltime": naturalTime,
		"date":        func(t time.Time) string { return t.Format("2 Jan 2006") },
		"truncate":    truncateWords,
		"linebreaks":  linebreaks,
		"media":       media.URL,
		"dict":        dict,
		"add":         func(a, b int) int { return a + b },
	}
}

func naturalTime(t time.Time) string {
	return humanize.Time(t)
}

// truncateWords keeps the first n words of s.
func truncateWords(n int, s string) string {
	words := strings.FieldsFunc(s, unicode.IsSpace)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " …"
}

// linebreaks escapes s and turns blank-line separated blocks into
// paragraphs and single newlines into <br>.
func linebreaks(s string) template.HTML {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n")
	if s == "" {
		return ""
	}
	var buf bytes.Buffer
	for _, para := range strings.Split(s, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i, l := range lines {
			lines[i] = template.HTMLEscapeString(l)
		}
		buf.WriteString("<p>")
		buf.WriteString(strings.Join(lines, "<br>"))
		buf.WriteString("</p>\n")
	}
	return template.HTML(buf.String())
}

func dict(kv ...interface{}) (map[string]interface{}, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict needs key/value pairs")
	}
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}
