// Package web renders the HTML pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"yatube/internal/media"
)

//go:embed templates/*.html templates/includes/*.html
var templatesFS embed.FS

// Page template names.
const (
	PageIndex      = "index"
	PageGroupList  = "group_list"
	PageProfile    = "profile"
	PagePostDetail = "post_detail"
	PageCreatePost = "create_post"
	PageFollow     = "follow"
	PageLogin      = "login"
	PageSignup     = "signup"
	PageAuthor     = "about_author"
	PageTech       = "about_tech"
	PageForbidden  = "403csrf"
	PageNotFound   = "404"
	PageError      = "500"
)

// CSRFField is the hidden form field that carries the anti-forgery token.
const CSRFField = "csrfmiddlewaretoken"

var pages = []string{
	PageIndex, PageGroupList, PageProfile, PagePostDetail, PageCreatePost,
	PageFollow, PageLogin, PageSignup, PageAuthor, PageTech,
	PageForbidden, PageNotFound, PageError,
}

// Templates holds one parsed set per page, each sharing the base layout and includes.
// It satisfies fiber.Views.
type Templates struct {
	fsys  fs.FS
	pages map[string]*template.Template
}

// NewTemplates parses the embedded templates.
func NewTemplates() (*Templates, error) {
	t := &Templates{fsys: templatesFS}
	if err := t.Load(); err != nil {
		return nil, err
	}
	return t, nil
}

// Load parses every page against a fresh copy of the layout.
func (t *Templates) Load() error {
	root, err := template.New("root").Funcs(funcs).ParseFS(t.fsys, "templates/base.html", "templates/includes/*.html")
	if err != nil {
		return fmt.Errorf("failed to parse layout: %w", err)
	}

	parsed := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		clone, err := root.Clone()
		if err != nil {
			return err
		}
		if _, err := clone.ParseFS(t.fsys, path.Join("templates", name+".html")); err != nil {
			return fmt.Errorf("failed to parse template %q: %w", name, err)
		}
		parsed[name] = clone
	}
	t.pages = parsed
	return nil
}

// Render executes the named page. Layouts are ignored: every page extends base.html.
func (t *Templates) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("failed to execute template %q: %w", name, err)
	}
	return nil
}

// RenderBytes renders into memory, so a failed render never leaves a half-written response.
func (t *Templates) RenderBytes(name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Render(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var funcs = template.FuncMap{
	"postURL":       PostURL,
	"editURL":       func(id uint) string { return "/posts/" + uintString(id) + "/edit/" },
	"commentURL":    func(id uint) string { return "/posts/" + uintString(id) + "/comment/" },
	"profileURL":    ProfileURL,
	"groupURL":      func(slug string) string { return "/group/" + url.PathEscape(slug) + "/" },
	"followURL":     func(username string) string { return "/profile/" + url.PathEscape(username) + "/follow" },
	"unfollowURL":   func(username string) string { return "/profile/" + url.PathEscape(username) + "/unfollow" },
	"mediaURL":      media.URL,
	"pageURL":       func(n int) string { return "?page=" + strconv.Itoa(n) },
	"date":          FormatDate,
	"fieldArgs":     fieldArgs,
	"truncatewords": TruncateWords,
	"linebreaks":    Linebreaks,
	"csrfField":     func() string { return CSRFField },
}

// PostURL is the detail page of a post.
func PostURL(id uint) string {
	return "/posts/" + uintString(id) + "/"
}

// ProfileURL is the author page of username.
func ProfileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

var monthsGenitive = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// FormatDate prints "19 октября 2026".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d", t.Day(), monthsGenitive[t.Month()-1], t.Year())
}

// TruncateWords keeps the first n words and appends an ellipsis when it cut anything.
func TruncateWords(n int, s string) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " …"
}

// Linebreaks escapes text and turns newlines into <br>.
func Linebreaks(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

func uintString(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}

// FieldArgs feeds the shared input snippet.
type FieldArgs struct {
	Name  string
	Label string
	Type  string
	Value string
	Error string
}

func fieldArgs(f Form, name, label, inputType string) FieldArgs {
	return FieldArgs{Name: name, Label: label, Type: inputType, Value: f.Value(name), Error: f.Error(name)}
}
