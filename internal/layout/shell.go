// Package layout wraps page bodies in the application chrome.
package layout

import (
	"bytes"
	"html/template"
)

type NavItem struct {
	Label string
	Path  string
}

var Sidebar = []NavItem{
	{Label: "Dashboard", Path: "/dashboard"},
	{Label: "Shopfloors", Path: "/shopfloors"},
	{Label: "Machines", Path: "/machines"},
	{Label: "Work Orders", Path: "/work-orders"},
	{Label: "AI Insights", Path: "/ai-insights"},
}

var chromeTmpl = template.Must(template.New("chrome").Parse(`<div class="flex flex-col h-screen">
<div class="h-8 bg-dark-panel border-b border-dark-border flex items-center justify-center"><span class="heading-inter text-sm text-white">sage</span></div>
<div class="flex flex-1 overflow-hidden">
<nav class="sidebar">{{range .Nav}}<a href="{{.Path}}"{{if eq .Path $.Path}} class="active" aria-current="page"{{end}}>{{.Label}}</a>{{end}}</nav>
<main class="flex-1 overflow-auto">{{.Children}}</main>
</div>
</div>`))

// Shell returns children unchanged on the login route and wrapped in the
// top bar, sidebar and scrollable main region everywhere else.
func Shell(loginPath, path string, children template.HTML) (template.HTML, error) {
	if path == loginPath {
		return children, nil
	}

	var buf bytes.Buffer
	err := chromeTmpl.Execute(&buf, struct {
		Nav      []NavItem
		Path     string
		Children template.HTML
	}{Sidebar, path, children})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
