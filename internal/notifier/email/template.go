package email

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/aleister1102/monsterwatch/internal/differ"
	"github.com/aleister1102/monsterwatch/internal/models"
)

//go:embed templates/*
var templatesFS embed.FS

const mailTemplateName = "mail.html.tmpl"

// mailData is the template input. Kind selects the section rendered.
type mailData struct {
	Kind    models.EventKind
	Subject string
	URL     string
	URLs    []string
	Reason  string
	Status  *int
	Lines   []codeLine
}

// codeLine is one row of the changes table. Type is one of summary,
// deletion, addition or empty for context lines.
type codeLine struct {
	Type     string
	OldIndex *int
	NewIndex *int
	Sign     string
	Text     string
	Segments []differ.Segment
}

func parseTemplate() (*template.Template, error) {
	funcs := template.FuncMap{
		"inc": func(i *int) int { return *i + 1 },
	}
	tmpl, err := template.New(mailTemplateName).Funcs(funcs).ParseFS(templatesFS, "templates/"+mailTemplateName)
	if err != nil {
		return nil, common.WrapError(err, "failed to parse mail template")
	}
	return tmpl, nil
}

func render(tmpl *template.Template, data mailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, mailTemplateName, data); err != nil {
		return "", common.WrapError(err, "failed to render mail template")
	}
	return buf.String(), nil
}

// codeLines lays out hunks as table rows, with inline emphasis between
// paired deletions and additions.
func codeLines(hunks []differ.Hunk) []codeLine {
	var lines []codeLine
	for _, h := range hunks {
		lines = append(lines, codeLine{Type: "summary", Text: h.Header()})

		segments := differ.PairedSegments(h)
		for i, line := range h.Lines {
			row := codeLine{Sign: line.Op.Prefix(), Segments: segments[i]}
			switch line.Op {
			case differ.OpDelete:
				row.Type = "deletion"
				row.OldIndex = intPtr(line.OldIndex)
			case differ.OpInsert:
				row.Type = "addition"
				row.NewIndex = intPtr(line.NewIndex)
			default:
				row.OldIndex = intPtr(line.OldIndex)
				row.NewIndex = intPtr(line.NewIndex)
			}
			lines = append(lines, row)
		}
	}
	return lines
}

func intPtr(v int) *int {
	return &v
}
