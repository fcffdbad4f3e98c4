package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

type OutputOptions struct {
	Format string `long:"format" choice:"table" choice:"json" choice:"json-pretty" default:"table" description:"Output format"`
}

// render writes v as JSON or, for the table format, whatever table writes.
func (o *OutputOptions) render(w io.Writer, v any, table func(tw *tabwriter.Writer)) error {
	switch o.Format {
	case "json":
		return json.NewEncoder(w).Encode(v)
	case "json-pretty":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

func row(tw *tabwriter.Writer, key string, value any) {
	fmt.Fprintf(tw, "%s:\t%v\n", key, value)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(time.Local).Format(time.RFC3339)
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(*id)
}
