package datasets

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"lookupdesk/internal/core"
)

var contentTypes = map[core.DatasetFormat]string{
	core.FormatJSON: "application/json",
	core.FormatCSV:  "text/csv",
	core.FormatHTML: "text/html; charset=utf-8",
}

// ContentType returns the media type used when serving format.
func ContentType(format core.DatasetFormat) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Render writes result in format. JSON output is the bare run result.
func Render(w io.Writer, format core.DatasetFormat, descriptor core.DatasetTemplateDescriptor, result core.DatasetRunResult) error {
	switch format {
	case core.FormatJSON:
		result.Format = core.FormatJSON
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
	case core.FormatCSV:
		if err := writeCSV(w, columnsFor(descriptor, result), result.Rows); err != nil {
			return fmt.Errorf("render csv: %w", err)
		}
	case core.FormatHTML:
		if err := writeHTML(w, descriptor, result); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format %s", format)
	}
	return nil
}

func columnsFor(descriptor core.DatasetTemplateDescriptor, result core.DatasetRunResult) []core.DatasetColumn {
	if len(result.Schema) > 0 {
		return result.Schema
	}
	return descriptor.Columns
}

func writeCSV(w io.Writer, columns []core.DatasetColumn, rows []map[string]any) error {
	writer := csv.NewWriter(w)
	headers := make([]string, len(columns))
	for i, column := range columns {
		headers[i] = column.Name
	}
	if err := writer.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, column := range columns {
			record[i] = formatValue(row[column.Name])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// writeHTML renders a standalone page with the result table. When the run
// matched nothing the outcome message is shown instead of an empty body.
func writeHTML(w io.Writer, descriptor core.DatasetTemplateDescriptor, result core.DatasetRunResult) error {
	columns := columnsFor(descriptor, result)
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`)
	b.WriteString(html.EscapeString(descriptor.Title))
	b.WriteString("</title></head><body><h1>")
	b.WriteString(html.EscapeString(descriptor.Title))
	b.WriteString("</h1>")
	if msg, ok := result.Metadata["message"].(string); ok && msg != "" {
		b.WriteString(`<p class="message">`)
		b.WriteString(html.EscapeString(msg))
		b.WriteString("</p>")
	}
	b.WriteString("<table><thead><tr>")
	for _, column := range columns {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(column.Name))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range result.Rows {
		b.WriteString("<tr>")
		for _, column := range columns {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(formatValue(row[column.Name])))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table></body></html>")
	_, err := io.WriteString(w, b.String())
	return err
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return strings.Join(v, "; ")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}
