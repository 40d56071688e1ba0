package pdf

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satnyp/spolek-rodicu/internal/models"
)

func TestLatin(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jana Nováková", "Jana Nov\xe1kov\xe1"},
		{"Řehoř Čermák", "Rehor Cerm\xe1k"},
		{"Šťastný Žák", "\x8atastn\xfd \x8e\xe1k"},
		{"1 500 Kč", "1 500 Kc"},
		{"日本", "??"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, latin(tt.in))
		})
	}
}

func TestRender(t *testing.T) {
	data, err := Render("Žádost 050320267", map[string]string{
		"jmeno": "Jana Nováková",
		"ucel":  "Výlet",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Contains(t, string(data), "Jana Nov\xe1kov\xe1")

	// Fields are laid out in name order.
	assert.Less(t, bytes.Index(data, []byte("jmeno")), bytes.Index(data, []byte("ucel")))
}

func TestExporter_Render(t *testing.T) {
	exp, err := NewExporter("")
	require.NoError(t, err)
	assert.False(t, exp.HasTemplate())

	doc, err := exp.Export(&models.Request{
		VS:          "050320267",
		MonthKey:    "2026-03",
		Description: "Vstupné ZOO",
		AmountCzk:   decimal.RequireFromString("1250.5"),
		EditorData:  map[string]string{"jmeno": "Jana"},
	})
	require.NoError(t, err)
	assert.Equal(t, "SR_050320267.pdf", doc.Filename)
	assert.Contains(t, string(doc.Data), "1250.50")
	assert.Contains(t, string(doc.Data), "Jana")
}

func TestFill_WithoutForm(t *testing.T) {
	plain, err := Render("plain", nil)
	require.NoError(t, err)

	_, err = Fill(plain, map[string]string{"jmeno": "Jana"})
	assert.True(t, errors.Is(err, ErrNoFormFields), "got %v", err)

	_, err = NewExporterFromBytes(plain).Export(&models.Request{VS: "1"})
	assert.True(t, errors.Is(err, ErrNoFormFields), "got %v", err)
}

func readTemplate(t *testing.T) []byte {
	t.Helper()
	tpl, err := os.ReadFile(filepath.Join("testdata", "form.pdf"))
	require.NoError(t, err)
	return tpl
}

func fieldByName(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func TestFill(t *testing.T) {
	tpl := readTemplate(t)

	before, err := Fields(bytes.NewReader(tpl))
	require.NoError(t, err)
	_, ok := fieldByName(before, "firstName1")
	require.True(t, ok, "template fields: %+v", before)

	out, err := Fill(tpl, map[string]string{
		"firstName1":   "Jana Nováková",
		"unknownField": "Test",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	after, err := Fields(bytes.NewReader(out))
	require.NoError(t, err)
	f, ok := fieldByName(after, "firstName1")
	require.True(t, ok)
	assert.True(t, f.Locked, "filled field should be locked")
	_, ok = fieldByName(after, "unknownField")
	assert.False(t, ok)
	assert.Len(t, after, len(before))
}

func TestFill_OnlyUnknownFields(t *testing.T) {
	tpl := readTemplate(t)

	out, err := Fill(tpl, map[string]string{"unknownField": "Test"})
	require.NoError(t, err)
	assert.Equal(t, tpl, out)
}

func TestNewExporter_MissingTemplate(t *testing.T) {
	_, err := NewExporter("/nonexistent/template.pdf")
	assert.Error(t, err)
}
