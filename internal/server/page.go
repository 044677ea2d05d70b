// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/patent-rank/internal/output"
	"github.com/pdiddy/patent-rank/pkg/types"
)

// pageData feeds the search page template.
type pageData struct {
	Question string
	Searched bool
	Warning  string
	Error    string
	Columns  []string
	Rows     []row
}

type row struct {
	Document string
	Title    string
	Abstract string
	Score    string
}

func rows(results []types.RankedResult, excerpt int) []row {
	out := make([]row, len(results))
	for i, r := range results {
		out[i] = row{
			Document: r.Reference.String(),
			Title:    output.Excerpt(r.Title, excerpt),
			Abstract: output.Excerpt(r.Abstract, excerpt),
			Score:    fmt.Sprintf("%.4f", r.Score),
		}
	}
	return out
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="it">
<head>
<meta charset="utf-8">
<title>Motore semantico brevettuale</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
label { display: block; margin-top: 1rem; }
input { width: 100%; padding: .4rem; }
button { margin-top: 1rem; padding: .5rem 1.5rem; }
table { border-collapse: collapse; margin-top: 1.5rem; width: 100%; }
th, td { border: 1px solid #ccc; padding: .4rem; text-align: left; vertical-align: top; }
.warning { background: #fff4ce; padding: .75rem; margin-top: 1.5rem; }
.error { background: #fde7e9; padding: .75rem; margin-top: 1.5rem; }
</style>
</head>
<body>
<h1>Motore semantico brevettuale</h1>
<form method="post" action="/search">
<label>Client ID EPO <input type="password" name="client_id" autocomplete="off"></label>
<label>Client Secret EPO <input type="password" name="client_secret" autocomplete="off"></label>
<label>Scrivi la tua domanda (es. tecnologie per ridurre il consumo energetico)
<input type="text" name="question" value="{{.Question}}"></label>
<button type="submit">Cerca</button>
</form>
{{- if .Error}}
<div class="error">Errore: {{.Error}}</div>
{{- else if .Warning}}
<div class="warning">{{.Warning}}</div>
{{- else if .Searched}}
<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.Document}}</td><td>{{.Title}}</td><td>{{.Abstract}}</td><td>{{.Score}}</td></tr>
{{- end}}
</tbody>
</table>
{{- end}}
</body>
</html>
`))

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	data.Columns = output.Columns
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("rendering page", zap.Error(err))
	}
}
