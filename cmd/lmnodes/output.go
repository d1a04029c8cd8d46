package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/deepnoodle-ai/lmnodes/internal/tablewriter"
	"github.com/fatih/color"
	dto "github.com/prometheus/client_model/go"
)

var (
	headerStyle  = color.New(color.FgCyan, color.Bold)
	successStyle = color.New(color.FgGreen)
	warningStyle = color.New(color.FgYellow, color.Bold)
	mutedStyle   = color.New(color.FgHiBlack)
	boldStyle    = color.New(color.Bold)
)

const maxCellWidth = 60

// printTable writes rows in aligned columns under a styled header.
func printTable(w io.Writer, headers []string, rows [][]string, opts ...tablewriter.Option) {
	opts = append([]tablewriter.Option{
		tablewriter.WithMaxCellWidth(maxCellWidth),
		tablewriter.WithHeaderFormat(func(s string) string { return headerStyle.Sprint(s) }),
	}, opts...)
	table := tablewriter.NewWriter(w, opts...)
	table.SetHeader(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

// printMetrics writes each gathered sample as name{labels} value.
func printMetrics(w io.Writer, families []*dto.MetricFamily) {
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			name := family.GetName() + formatLabels(metric.GetLabel())
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "%s %g\n", name, metric.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				fmt.Fprintf(w, "%s %g\n", name, metric.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := metric.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
			default:
				fmt.Fprintf(w, "%s %s\n", name, mutedStyle.Sprint("(unsupported type)"))
			}
		}
	}
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
