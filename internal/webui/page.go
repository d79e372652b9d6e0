package webui

import "html/template"

const pageTitle = "YouTube Transcript Summarizer"

// pageData feeds pageTmpl.
type pageData struct {
	Title   string
	URL     string
	Heading string        // video title, when known
	Summary template.HTML // rendered markdown
	Error   string
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 760px; margin: 2rem auto; padding: 0 1rem; color: #262730; }
form { display: flex; gap: .5rem; margin: 1.5rem 0; }
input[type=text] { flex: 1; padding: .5rem; font-size: 1rem; }
button { padding: .5rem 1rem; font-size: 1rem; cursor: pointer; }
blockquote { border-left: 3px solid #d0d0d8; margin: 0; padding-left: 1rem; }
.error { background: #ffecec; color: #7d1a1a; padding: .75rem 1rem; border-radius: .3rem; }
#busy { display: none; color: #555; }
form.busy + #busy { display: block; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<label for="url">Enter YouTube video URL:</label>
<form method="get" action="/" onsubmit="this.classList.add('busy'); this.querySelector('button').disabled = true;">
<input type="text" id="url" name="url" value="{{.URL}}" placeholder="https://www.youtube.com/watch?v=..." aria-label="Enter YouTube video URL:">
<button type="submit">Summarize</button>
</form>
<p id="busy">Fetching and summarizing transcript...</p>
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
{{if .Summary}}
<h2>Summary:</h2>
{{if .Heading}}<p><em>{{.Heading}}</em></p>{{end}}
<div class="summary">{{.Summary}}</div>
{{end}}
</body>
</html>
`))
