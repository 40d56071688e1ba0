// Command pdffields prints the form fields of a PDF template as JSON, one
// entry per field, so editor field names can be matched to the template.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/satnyp/spolek-rodicu/internal/pdf"
	"github.com/satnyp/spolek-rodicu/pkg/logging"
)

func main() {
	out := flag.String("o", "", "write JSON to this file instead of stdout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-o fields.json] template.pdf\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	logging.Setup()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		slog.Error("Failed to open template", "path", path, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	fields, err := pdf.Fields(f)
	if err != nil {
		slog.Error("Failed to list form fields", "path", path, "error", err)
		os.Exit(1)
	}

	payload := struct {
		Source string      `json:"source"`
		Fields []pdf.Field `json:"fields"`
	}{Source: path, Fields: fields}

	w := os.Stdout
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			slog.Error("Failed to create output", "path", *out, "error", err)
			os.Exit(1)
		}
		defer file.Close()
		w = file
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		slog.Error("Failed to write fields", "error", err)
		os.Exit(1)
	}
	slog.Info("Listed form fields", "path", path, "count", len(fields))
}
