package client

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

// Label 返回结果的展示文本 "{title} [{difficulty}]"，缺失字段用链接或 Unknown 代替
func Label(p engine.Problem) string {
	title := p.Title
	if title == "" {
		title = p.Link
	}
	if title == "" {
		title = "(untitled)"
	}
	difficulty := p.Difficulty
	if difficulty == "" {
		difficulty = "Unknown"
	}
	return fmt.Sprintf("%s [%s]", title, difficulty)
}

// unsafeHref 不安全链接的替换值，与 html/template 过滤时使用的一致
const unsafeHref = "#ZgotmplZ"

// safeScheme 判断链接协议是否可以放进 href，无协议的相对链接视为安全
func safeScheme(link string) bool {
	trimmed := strings.TrimSpace(link)
	for i, r := range trimmed {
		switch {
		case r == ':':
			scheme := strings.ToLower(trimmed[:i])
			return scheme == "http" || scheme == "https" || scheme == "mailto"
		case r == '/' || r == '?' || r == '#':
			return true
		}
	}
	return true
}

// hrefAttr 生成 href 属性，链接只做 HTML 属性转义，不做 URL 规范化
func hrefAttr(link string) template.HTMLAttr {
	if !safeScheme(link) {
		link = unsafeHref
	}
	return template.HTMLAttr(`href="` + html.EscapeString(link) + `"`)
}

var itemsTemplate = template.Must(template.New("items").Funcs(template.FuncMap{
	"label": Label,
	"href":  hrefAttr,
}).Parse(`
{{- if eq .State.String "loading" -}}
<li class="loading">Searching…</li>
{{- else if eq .State.String "error" -}}
<li class="error">Search failed: {{.Err}}</li>
{{- else -}}
{{- range .Results -}}
<li>{{if .Link}}<a {{href .Link}} target="_blank" rel="noopener noreferrer">{{label .}}</a>{{else}}{{label .}}{{end}}</li>
{{- end -}}
{{- end -}}`))

// HTMLList 以 <li> 列表渲染结果，对应页面上的 results 容器
type HTMLList struct {
	mu   sync.Mutex
	view View
}

// NewHTMLList 创建 HTML 输出区域
func NewHTMLList() *HTMLList {
	return &HTMLList{}
}

// Show 替换当前视图
func (l *HTMLList) Show(v View) {
	l.mu.Lock()
	l.view = v
	l.mu.Unlock()
}

// View 返回当前视图
func (l *HTMLList) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view
}

// HTML 渲染容器内部的 HTML（不含外层 <ul>）
func (l *HTMLList) HTML() template.HTML {
	var buf bytes.Buffer
	if err := itemsTemplate.Execute(&buf, l.View()); err != nil {
		return template.HTML(`<li class="error">` + template.HTMLEscapeString(err.Error()) + `</li>`)
	}
	return template.HTML(buf.String())
}

// TerminalList 在终端中输出结果
type TerminalList struct {
	w io.Writer
}

// NewTerminalList 创建终端输出区域
func NewTerminalList(w io.Writer) *TerminalList {
	return &TerminalList{w: w}
}

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	linkColor    = color.New(color.FgBlue, color.Underline)
	faintColor   = color.New(color.Faint)
	errorColor   = color.New(color.FgRed, color.Bold)
	easyColor    = color.New(color.FgGreen)
	mediumColor  = color.New(color.FgYellow)
	hardColor    = color.New(color.FgRed)
	unknownColor = color.New(color.FgWhite)
)

func difficultyColor(d string) *color.Color {
	switch strings.ToLower(d) {
	case "easy", "school":
		return easyColor
	case "medium":
		return mediumColor
	case "hard":
		return hardColor
	default:
		return unknownColor
	}
}

// Show 输出视图；终端无法清屏重绘，Loading 只打印一行提示
func (l *TerminalList) Show(v View) {
	switch v.State {
	case StateLoading:
		faintColor.Fprintln(l.w, "🔍 Searching...")
	case StateError:
		errorColor.Fprintf(l.w, "❌ Search failed: %v\n", v.Err)
	case StateSuccess:
		if len(v.Results) == 0 {
			faintColor.Fprintln(l.w, "No problems found.")
			return
		}
		for i, p := range v.Results {
			title := p.Title
			if title == "" {
				title = p.Link
			}
			difficulty := p.Difficulty
			if difficulty == "" {
				difficulty = "Unknown"
			}
			fmt.Fprintf(l.w, "%2d. ", i+1)
			titleColor.Fprint(l.w, title)
			fmt.Fprint(l.w, " [")
			difficultyColor(difficulty).Fprint(l.w, difficulty)
			fmt.Fprintln(l.w, "]")
			if p.Link != "" {
				fmt.Fprint(l.w, "    ")
				linkColor.Fprintln(l.w, p.Link)
			}
		}
	}
}
