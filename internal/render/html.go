package render

import (
	"bytes"
	_ "embed"
	"html/template"
)

//go:embed templates/storybook.html.tmpl
var storybookTemplate string

var storybookTmpl = template.Must(template.New("storybook").Parse(storybookTemplate))

// HTML renders the public storybook page.
func HTML(view *StoryView) ([]byte, error) {
	var buf bytes.Buffer
	if err := storybookTmpl.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
