package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/viper"

	"portfolio/internal/app"
	"portfolio/internal/domain/audit"
	"portfolio/internal/infrastructure/notify"
)

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func printRecords(out io.Writer, items []app.Record) error {
	if viper.GetBool("json") {
		return printJSON(out, items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"ID", "Name", "State", "Version", "Deleted By", "Deleted At", "Restorable Until"})
	for _, r := range items {
		tw.AppendRow(table.Row{r.ID, r.Name, r.State, r.Version, r.DeletedBy, formatTime(r.DeletedAt), formatTime(r.EligibleUntil)})
	}
	tw.Render()
	return nil
}

func printHistory(out io.Writer, entries []audit.Entry) error {
	if viper.GetBool("json") {
		return printJSON(out, entries)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"When", "Action", "User", "Metadata"})
	for _, e := range entries {
		user := ""
		if e.UserID != nil {
			user = *e.UserID
		}
		tw.AppendRow(table.Row{e.CreatedAt.UTC().Format(time.RFC3339), e.Action, user, string(e.Metadata)})
	}
	tw.Render()
	return nil
}

func printCounts(out io.Writer, counts map[string]int) error {
	if viper.GetBool("json") {
		return printJSON(out, counts)
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"Entity", "Purged"})
	for _, k := range keys {
		tw.AppendRow(table.Row{k, counts[k]})
	}
	tw.Render()
	return nil
}

// printToasts writes notifications to stderr so stdout stays parseable.
func printToasts(errOut io.Writer, msgs []notify.Message) {
	for _, m := range msgs {
		fmt.Fprintf(errOut, "[%s] %s\n", m.Level, m.Text)
	}
}
