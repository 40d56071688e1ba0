package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Render lays out title and the fields, sorted by name, on A4 pages.
func Render(title string, fields map[string]string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetTitle(title, true)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, latin(title), "", 1, "L", false, 0, "")
	doc.Ln(4)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		doc.SetFont("Helvetica", "B", 10)
		doc.CellFormat(60, 7, latin(name), "B", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(0, 7, latin(fields[name]), "B", "L", false)
	}

	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	var out bytes.Buffer
	if err := doc.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return out.Bytes(), nil
}

// latin encodes s as Windows-1252 for the core fonts. Letters outside the
// code page lose their diacritics; anything else becomes '?'.
func latin(s string) string {
	var b strings.Builder
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
			continue
		}
		base := []rune(norm.NFD.String(string(r)))
		if len(base) > 0 && !unicode.Is(unicode.Mn, base[0]) {
			if c, ok := charmap.Windows1252.EncodeRune(base[0]); ok {
				b.WriteByte(c)
				continue
			}
		}
		b.WriteByte('?')
	}
	return b.String()
}
