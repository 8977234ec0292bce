package view

import (
	"io"
	"strconv"
	"text/template"
)

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(`
{{- if .IndicatorActive}}(*){{else}}( ){{end}} {{if .UserInfoVisible}}Logged in as {{.LoggedUser}}{{else}}Not logged in{{end}}
{{- if .AuthMenuOpen}}
  {{- if .LoginFormVisible}}
  Teacher login: login <username> <password>{{if .LoginUsername}} [{{.LoginUsername}}]{{end}}
  {{- else}}
  logout
  {{- end}}
{{- end}}
{{- with .Message}}{{if .Visible}}
[{{.Kind}}] {{.Text}}
{{- end}}{{end}}

Extracurricular Activities
{{- if .ListNotice}}
  {{.ListNotice}}
{{- else}}
{{- range .Cards}}

{{.Name}}
  {{.Description}}
  Schedule: {{.Schedule}}
  Availability: {{.SpotsLeft}} spots left
  {{- if .Participants}}
  Participants:
  {{- range .Participants}}
    - {{.Email}}  (unregister {{quote .Activity}} {{quote .Email}})
  {{- end}}
  {{- else}}
  No participants yet
  {{- end}}
{{- end}}
{{- end}}

{{if .SignupSectionVisible -}}
Sign Up a Student
  Activities: {{range $i, $o := .Options}}{{if $i}}, {{end}}{{$o}}{{end}}
  {{- if or .SignupEmail .SignupActivity}}
  Pending: {{.SignupEmail}} -> {{.SignupActivity}}
  {{- end}}
  signup <email> <activity>
{{- end}}
{{- if .TeacherNoticeVisible -}}
Only teachers can register or unregister students. Log in to manage participants.
{{- end}}
`))

// Render writes a text rendering of s.
func Render(w io.Writer, s State) error {
	return pageTemplate.Execute(w, s)
}
