package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"FeedCollector/internal/app"
)

func renderRunReport(report app.Report) string {
	res := report.Result

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Run " + res.RunID)
	tw.AppendHeader(table.Row{"Source", "Items", "Summarized", "Duration", "Status"})

	total, summarized := 0, 0
	for _, src := range res.Sources {
		status := "ok"
		switch {
		case src.Panicked:
			status = "panicked"
		case src.Items == 0:
			status = "empty"
		}
		tw.AppendRow(table.Row{
			src.Name,
			strconv.Itoa(src.Items),
			strconv.Itoa(src.Summarized),
			src.Duration.Round(time.Millisecond).String(),
			status,
		})
		total += src.Items
		summarized += src.Summarized
	}
	tw.AppendFooter(table.Row{"Total", strconv.Itoa(total), strconv.Itoa(summarized), "", summaryStatus(report)})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	out := tw.Render()
	if report.ArtifactPath != "" {
		out += fmt.Sprintf("\nartifact: %s", report.ArtifactPath)
	}
	return out
}

func summaryStatus(report app.Report) string {
	summary := report.Result.Summary
	switch {
	case summary == nil:
		return "no summary"
	case summary.Failed():
		return "summary failed"
	case report.Result.Persisted:
		return "summary stored"
	default:
		return "summary not stored"
	}
}
