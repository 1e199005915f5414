package handlers

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v3"
	"github.com/jaytnw/sage-insights/internal/layout"
	"github.com/jaytnw/sage-insights/internal/view"
)

var pageFuncs = template.FuncMap{
	"duration": view.FormatDuration,
	"percent":  view.FormatPercent,
}

var documentTmpl = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}} · sage</title></head>
<body class="bg-dark-bg text-dark-text">{{.Body}}</body>
</html>`))

var insightsTmpl = template.Must(template.New("insights").Funcs(pageFuncs).Parse(`<div class="p-6 min-h-screen">
{{range .Notices}}<div class="toast toast-{{.Level}}" role="alert">{{.Message}}</div>{{end}}
<div class="mb-6">
<h1 class="heading-inter heading-inter-lg">AI Insights</h1>
<form method="get" action="/ai-insights" class="flex items-center gap-4 mt-4">
<label for="labId" class="text-gray-400">Shopfloor/Lab:</label>
<select id="labId" name="labId" onchange="this.form.submit()"{{if or (eq .State "loading") (not .Labs)}} disabled{{end}}>
<option value="">{{if eq .State "loading"}}Loading labs...{{else if not .Labs}}No labs available{{else}}Select a lab...{{end}}</option>
{{range .Labs}}<option value="{{.ID}}"{{if eq .ID $.SelectedLabID}} selected{{end}}>{{.Name}}</option>{{end}}
</select>
</form>
</div>
{{if .SelectedLabID}}
<div class="grid grid-cols-1 md:grid-cols-2 gap-6">
<div class="card" id="total-machines">
<h3>Total Machines</h3>
{{if eq .State "stats_loading"}}<div class="text-gray-400">Loading...</div>{{else}}
<div class="stat">{{if .Stats}}{{.Stats.TotalMachines}}{{else}}{{len .Machines}}{{end}}</div>
<div class="hint">Active machines in {{if .SelectedLab}}{{.SelectedLab.Name}}{{else}}selected lab{{end}}</div>
{{end}}
</div>
<div class="card" id="scheduled-maintenance">
<h3>Scheduled Maintenance</h3>
{{if eq .State "stats_loading"}}<div class="text-gray-400">Loading...</div>{{else}}
<div class="stat">{{if .Stats}}{{.Stats.ScheduledMaintenanceCount}}{{else}}0{{end}}</div>
<div class="hint">Work orders in the past month</div>
{{if .Stats}}{{with .Stats.MachinesWithMaintenance}}<div class="note">{{len .}} machine(s) had maintenance scheduled</div>{{end}}{{end}}
{{end}}
</div>
</div>
{{if and .Stats (ne .State "stats_loading")}}
<div class="card mt-6" id="performance">
<h3>Performance (Last 7 Days)</h3>
<div class="grid grid-cols-1 md:grid-cols-2 gap-6">
<div><div class="label">Total Downtime</div><div class="stat">{{percent .Stats.DowntimePercentage}}</div><div class="hint">{{duration .Stats.TotalDowntime}} of total time</div></div>
<div><div class="label">Total Uptime</div><div class="stat">{{percent .Stats.UptimePercentage}}</div><div class="hint">{{duration .Stats.TotalUptime}} of total time</div></div>
</div>
</div>
{{end}}
{{end}}
</div>`))

var loginTmpl = template.Must(template.New("login").Parse(`<div class="login p-6">
<h1 class="heading-inter">sign in to sage</h1>
<form method="post" action="/login">
<label for="userId">User ID</label><input id="userId" name="userId" required>
<label for="name">Name</label><input id="name" name="name">
<button type="submit">Continue</button>
</form>
</div>`))

// render executes body, wraps it in the layout shell for the request path
// and sends the full document.
func render(c fiber.Ctx, loginPath, title string, body *template.Template, data any) error {
	var inner bytes.Buffer
	if err := body.Execute(&inner, data); err != nil {
		return err
	}

	shell, err := layout.Shell(loginPath, c.Path(), template.HTML(inner.String()))
	if err != nil {
		return err
	}

	var doc bytes.Buffer
	if err := documentTmpl.Execute(&doc, struct {
		Title string
		Body  template.HTML
	}{title, shell}); err != nil {
		return err
	}

	c.Type("html", "utf-8")
	return c.Send(doc.Bytes())
}
