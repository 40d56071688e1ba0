// Package pdf produces the printable request form, either by filling an
// AcroForm template or by laying out a plain A4 page.
package pdf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/form"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoFormFields is returned when a template carries no fillable text fields.
var ErrNoFormFields = errors.New("template does not include fillable form fields")

// Field describes one form field of a template.
type Field struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Pages  []int  `json:"pages,omitempty"`
	Locked bool   `json:"locked,omitempty"`
}

func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Fields lists the form fields of a PDF, sorted by name.
func Fields(template io.ReadSeeker) ([]Field, error) {
	if err := requireForm(template); err != nil {
		return nil, err
	}
	if _, err := template.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind template: %w", err)
	}
	raw, err := api.FormFields(template, configuration())
	if err != nil {
		return nil, fmt.Errorf("failed to read form fields: %w", err)
	}
	fields := make([]Field, 0, len(raw))
	for _, f := range raw {
		fields = append(fields, Field{
			ID:     f.ID,
			Name:   f.Name,
			Type:   f.Typ.String(),
			Pages:  f.Pages,
			Locked: f.Locked,
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, nil
}

// requireForm fails with ErrNoFormFields when the catalog has no AcroForm.
func requireForm(rs io.ReadSeeker) error {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind template: %w", err)
	}
	ctx, err := api.ReadContext(rs, configuration())
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	catalog, err := ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to read template catalog: %w", err)
	}
	if _, ok := catalog.Find("AcroForm"); !ok {
		return ErrNoFormFields
	}
	return nil
}

type fillPayload struct {
	Forms []fillForm `json:"forms"`
}

type fillForm struct {
	TextFields []fillTextField `json:"textfield"`
}

type fillTextField struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

// Fill writes values into the template's text fields and locks them.
// Values whose name matches no text field are ignored.
func Fill(template []byte, values map[string]string) ([]byte, error) {
	fields, err := Fields(bytes.NewReader(template))
	if err != nil {
		return nil, err
	}

	var text []fillTextField
	for _, f := range fields {
		if f.Type != form.FTText.String() && f.Type != form.FTDate.String() {
			continue
		}
		value, ok := values[f.Name]
		if !ok {
			continue
		}
		text = append(text, fillTextField{ID: f.ID, Name: f.Name, Value: value, Locked: true})
	}
	if len(text) == 0 {
		if len(fields) == 0 {
			return nil, ErrNoFormFields
		}
		return template, nil
	}

	payload, err := json.Marshal(fillPayload{Forms: []fillForm{{TextFields: text}}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode form values: %w", err)
	}

	var out bytes.Buffer
	if err := api.FillForm(bytes.NewReader(template), bytes.NewReader(payload), &out, configuration()); err != nil {
		return nil, fmt.Errorf("failed to fill template: %w", err)
	}
	if out.Len() == 0 {
		return nil, errors.New("generated pdf is empty")
	}
	return out.Bytes(), nil
}
