package pdf

import (
	"fmt"
	"os"

	"github.com/satnyp/spolek-rodicu/internal/models"
)

// Document is a generated PDF ready for download.
type Document struct {
	Filename string
	Data     []byte
}

// Exporter builds request PDFs from a template when one is configured and
// falls back to Render otherwise.
type Exporter struct {
	template []byte
}

// NewExporter loads the template at path. An empty path selects Render.
func NewExporter(path string) (*Exporter, error) {
	if path == "" {
		return &Exporter{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf template: %w", err)
	}
	return &Exporter{template: data}, nil
}

// NewExporterFromBytes uses template directly.
func NewExporterFromBytes(template []byte) *Exporter {
	return &Exporter{template: template}
}

// HasTemplate reports whether exports fill a template.
func (e *Exporter) HasTemplate() bool {
	return len(e.template) > 0
}

// Filename returns SR_<vs>.pdf.
func Filename(vs string) string {
	return "SR_" + vs + ".pdf"
}

// Export renders req. Template filling uses only the editor data; the
// synthesized page also lists the request's own fields.
func (e *Exporter) Export(req *models.Request) (*Document, error) {
	if e.HasTemplate() {
		data, err := Fill(e.template, req.EditorData)
		if err != nil {
			return nil, err
		}
		return &Document{Filename: Filename(req.VS), Data: data}, nil
	}

	fields := make(map[string]string, len(req.EditorData)+4)
	for k, v := range req.EditorData {
		fields[k] = v
	}
	fields["vs"] = req.VS
	fields["monthKey"] = req.MonthKey
	fields["description"] = req.Description
	fields["amountCzk"] = req.AmountCzk.StringFixed(2)

	data, err := Render("Žádost "+req.VS, fields)
	if err != nil {
		return nil, err
	}
	return &Document{Filename: Filename(req.VS), Data: data}, nil
}
