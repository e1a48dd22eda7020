package site

// layoutTemplate is the single page layout. It intentionally carries no
// build timestamps so that output stays byte-stable across rebuilds.
const layoutTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} &mdash; {{.Site.Title}}</title>
{{- if .Site.Author}}
<meta name="author" content="{{.Site.Author}}">
{{- end}}
{{- if .Site.Description}}
<meta name="description" content="{{.Site.Description}}">
{{- end}}
{{- if .Canonical}}
<link rel="canonical" href="{{.Canonical}}">
{{- end}}
{{- if .IconHref}}
<link rel="icon" href="{{.IconHref}}">
{{- end}}
</head>
<body>
<header>
<nav>
{{- range .Nav}}
<a href="{{.URL}}">{{.Label}}</a>
{{- end}}
</nav>
</header>
<main>
{{.Content}}
</main>
<footer>
{{- if .Site.Author}}
<p>{{.Site.Author}}</p>
{{- end}}
</footer>
</body>
</html>
`
