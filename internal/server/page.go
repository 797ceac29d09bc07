package server

import (
	"bytes"
	"errors"
	"html/template"
	"log"
	"net/http"

	"github.com/cliffyan/go-problem-search/internal/client"
	"github.com/cliffyan/go-problem-search/internal/config"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Problem Search</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2em auto; }
form { display: flex; gap: .5em; }
#results li { margin: .4em 0; }
#results li.error { color: #c0392b; }
.empty { color: #888; }
</style>
</head>
<body>
<h1>Problem Search</h1>
<form method="get" action="/">
  <input type="text" id="query" name="query" placeholder="Search problems..." value="{{.Query}}">
  <select id="difficulty" name="difficulty">
    <option value="">Any difficulty</option>
    {{- range .Difficulties}}
    <option value="{{.}}"{{if eq . $.Difficulty}} selected{{end}}>{{.}}</option>
    {{- end}}
  </select>
  <select id="language" name="language">
    <option value="">Any language</option>
    {{- range .Languages}}
    <option value="{{.}}"{{if eq . $.Language}} selected{{end}}>{{.}}</option>
    {{- end}}
  </select>
  <button type="submit">Search</button>
</form>
<ul id="results">{{.Results}}</ul>
{{- if .Empty}}
<p class="empty">No problems found</p>
{{- end}}
</body>
</html>
`))

// pageData 页面模板数据
type pageData struct {
	Query        string
	Difficulty   string
	Language     string
	Difficulties []string
	Languages    []string
	Results      template.HTML
	Empty        bool
}

// handlePage 渲染搜索页面；URL 带 query 参数时触发一次搜索
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params := r.URL.Query()
	form := client.ValuesForm(params)
	data := pageData{
		Query:        form.Value(client.FieldQuery),
		Difficulty:   form.Value(client.FieldDifficulty),
		Language:     form.Value(client.FieldLanguage),
		Difficulties: config.Difficulties,
		Languages:    config.Languages,
	}

	if params.Has(client.FieldQuery) {
		results := client.NewHTMLList()
		trigger := client.NewTrigger(form, s.searcher, results)
		if err := trigger.Fire(r.Context()); err != nil && !errors.Is(err, client.ErrSuperseded) {
			log.Printf("⚠️ Page search failed: %v", err)
		}
		view := results.View()
		data.Results = results.HTML()
		data.Empty = view.State == client.StateSuccess && len(view.Results) == 0
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		log.Printf("❌ Failed to render page: %v", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
