package cli

import (
	"fmt"
	"text/template"
)

const statusTemplate = `=== Status ===

{{- if .LoggedIn }}
Status:   Logged in as {{ .Username }}
{{- if not .ExpiresAt.IsZero }}
Expires:  {{ .ExpiresAt.Local.Format "2006-01-02 15:04" }}
{{- end }}
{{- else }}
Status:   Not logged in. Run 'gamesync login' to sync across devices.
{{- end }}
Server:   {{ if .Online }}reachable{{ else }}offline{{ end }}
{{ if eq .Pending 0 }}
✓ All data synchronized with server
{{- else }}
Pending sync:
  highscores: {{ .PendingHighscores }}
  stats:      {{ .PendingStats }}
  resources:  {{ .PendingResources }}
{{- end }}
`

const highscoreListTemplate = `=== Highscores ===
{{- if eq (len .) 0 }}
No highscores yet. Play a level with 'gamesync play <level> --score N'.
{{- else }}
{{- range . }}
{{ printf "%-20s" .LevelID }} {{ printf "%10d" .Score }}{{ if not .Synced }}  (not synced){{ end }}
{{- end }}
{{- end }}
`

const resourceListTemplate = `=== Resources ===
{{- if eq (len .) 0 }}
No resources found.

Use 'gamesync resource create --name NAME --file PATH' to add one.
{{- else }}
Found {{ len . }} resource(s):
{{- range . }}
- {{ .Name }} ({{ .Kind }})
   ID:       {{ .ID }}
   Size:     {{ len .Content }} bytes
   Revision: {{ .Revision }}{{ if not .Synced }} (not synced){{ end }}
{{- end }}
{{- end }}
`

var (
	statusTmpl        = template.Must(template.New("status").Parse(statusTemplate))
	highscoreListTmpl = template.Must(template.New("highscores").Parse(highscoreListTemplate))
	resourceListTmpl  = template.Must(template.New("resources").Parse(resourceListTemplate))
)

func (c *Cli) render(tmpl *template.Template, data any) error {
	if err := tmpl.Execute(c.io, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return nil
}
