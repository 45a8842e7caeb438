package notices

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/noticeboard/pkg/logger"
	"github.com/charlesng35/noticeboard/pkg/metrics"
)

const noticeTemplate = `<div id="{{.Key}}" class="{{.Classes}}" data-dismissible-meta="{{.Scope}}"
{{- if .Dismissible}} data-dismissible-time="{{.TTLSeconds}}"{{end}}
{{- if .Required}} data-is-required="1"{{end}}
{{- if .Token}} data-token="{{.Token}}"{{end}}>
<p>{{.Message}}</p>
{{- if .Buttons}}
<p>{{range $i, $b := .Buttons}}{{if $i}} <span class="notice-or">or</span> {{end}}<a href="{{$b.URL}}" class="button-primary">{{$b.Label}}</a>{{end}}</p>
{{- end}}
{{- if .Dismissible}}
<button type="button" class="notice-dismiss"><span class="screen-reader-text">Dismiss this notice.</span></button>
{{- end}}
</div>
`

type noticeView struct {
	Key         string
	Classes     string
	Scope       Scope
	Dismissible bool
	TTLSeconds  int64
	Required    bool
	Token       string
	Message     template.HTML
	Buttons     []Button
}

// Renderer turns notice records into HTML banners for a viewer.
type Renderer struct {
	defaults Defaults
	flags    *FlagStore
	tmpl     *template.Template
}

// NewRenderer validates the defaults and parses the banner template.
func NewRenderer(defaults Defaults, flags *FlagStore) (*Renderer, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	if flags == nil {
		return nil, fmt.Errorf("notice renderer: flag store is required")
	}

	tmpl, err := template.New("notice").Parse(noticeTemplate)
	if err != nil {
		return nil, fmt.Errorf("notice renderer: parse template: %w", err)
	}

	return &Renderer{defaults: defaults, flags: flags, tmpl: tmpl}, nil
}

// Render returns the banner for record, or false when it is suppressed by
// its ShowIf predicate or an existing dismissed flag. Rendering never writes.
func (r *Renderer) Render(ctx context.Context, viewer Viewer, record Notice) (template.HTML, bool, error) {
	n := r.defaults.Merge(record)
	if !n.Visible() {
		metrics.NoticeRenders.WithLabelValues("hidden").Inc()
		return "", false, nil
	}

	key := n.Key()
	if key != "" {
		dismissed, err := r.flags.Dismissed(ctx, n.Scope, viewer.UserID, key)
		if err != nil {
			logger.WithModule("notices").Warn("flag lookup failed, showing notice",
				zap.String("key", key),
				zap.String("scope", string(n.Scope)),
				zap.Error(err),
			)
		} else if dismissed {
			metrics.NoticeRenders.WithLabelValues("dismissed").Inc()
			return "", false, nil
		}
	}

	message, err := SanitizeMessage(n.Message, n.Format)
	if err != nil {
		metrics.NoticeRenders.WithLabelValues("error").Inc()
		return "", false, fmt.Errorf("notice %q: %w", n.ID, err)
	}

	view := noticeView{
		Key:         key,
		Classes:     classList(n),
		Scope:       n.Scope,
		Dismissible: n.Dismissible,
		TTLSeconds:  int64(n.TTL.Seconds()),
		Required:    n.Required,
		Message:     message,
		Buttons:     n.Buttons,
	}
	if n.Dismissible {
		view.Token = viewer.Token
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		metrics.NoticeRenders.WithLabelValues("error").Inc()
		return "", false, fmt.Errorf("notice %q: render: %w", n.ID, err)
	}

	metrics.NoticeRenders.WithLabelValues("shown").Inc()
	// #nosec G203 -- produced by html/template
	return template.HTML(buf.String()), true, nil
}

// RenderAll renders records in order and concatenates the visible banners.
func (r *Renderer) RenderAll(ctx context.Context, viewer Viewer, records []Notice) (template.HTML, error) {
	var out strings.Builder
	for _, record := range records {
		fragment, ok, err := r.Render(ctx, viewer, record)
		if err != nil {
			return "", err
		}
		if ok {
			out.WriteString(string(fragment))
		}
	}
	// #nosec G203 -- concatenation of rendered fragments
	return template.HTML(out.String()), nil
}

func classList(n Notice) string {
	classes := []string{"noticeboard-notice", "notice", n.Class, "notice-" + string(n.Type)}
	if n.Dismissible {
		classes = append(classes, "is-dismissible")
	}
	return strings.Join(strings.Fields(strings.Join(classes, " ")), " ")
}
