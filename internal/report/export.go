package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/harrison/phishdrill/internal/config"
	"github.com/harrison/phishdrill/internal/filelock"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var extensions = map[string]string{
	config.FormatCSV:      ".csv",
	config.FormatJSON:     ".json",
	config.FormatMarkdown: ".md",
	config.FormatHTML:     ".html",
}

// Render encodes t in format.
func Render(t *Table, format string) ([]byte, error) {
	switch format {
	case config.FormatCSV:
		return renderCSV(t)
	case config.FormatJSON:
		return renderJSON(t)
	case config.FormatMarkdown:
		return []byte(renderMarkdown(t)), nil
	case config.FormatHTML:
		return renderHTML(t)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Export writes t once per format into dir as <name>.<ext> and returns the
// written paths. Each file is replaced atomically.
func Export(t *Table, dir string, formats []string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		ext, ok := extensions[format]
		if !ok {
			return paths, fmt.Errorf("unsupported format: %s", format)
		}
		data, err := Render(t, format)
		if err != nil {
			return paths, fmt.Errorf("render %s as %s: %w", t.Name, format, err)
		}
		path := filepath.Join(dir, t.Name+ext)
		if err := filelock.LockAndWrite(path, data); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func renderCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return buf.Bytes(), nil
}

func renderJSON(t *Table) ([]byte, error) {
	records := t.records
	if records == nil {
		// [] rather than null for an empty report
		records = []struct{}{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// renderMarkdown produces a GitHub-flavored table under a level-2 heading.
func renderMarkdown(t *Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", t.Title)
	if len(t.Rows) == 0 {
		b.WriteString("_No results._\n")
		return b.String()
	}

	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			fmt.Fprintf(&b, " %s |", escapeCell(c))
		}
		b.WriteString("\n")
	}
	writeRow(t.Columns)
	b.WriteString("|")
	for range t.Columns {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range t.Rows {
		writeRow(row)
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// renderHTML converts the Markdown rendering into a standalone page.
func renderHTML(t *Table) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(renderMarkdown(t)), &body); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(t.Title))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
