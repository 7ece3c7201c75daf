package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
	// alignPath keeps the tail of long paths, where the file name lives
	alignPath
)

// pathColumnWidth caps path columns so history listings stay readable
const pathColumnWidth = 60

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		cfg := table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
		if i < len(aligns) {
			switch aligns[i] {
			case alignRight:
				cfg.Align = text.AlignRight
			case alignPath:
				cfg.WidthMax = pathColumnWidth
				cfg.WidthMaxEnforcer = trimPathLeft
			}
		}
		columnConfigs = append(columnConfigs, cfg)
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderSummary prints label/value pairs with the values right aligned
func renderSummary(rows [][2]string) string {
	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		body = append(body, []string{row[0], row[1]})
	}
	return renderTable([]string{"Result", "Value"}, body, []columnAlignment{alignLeft, alignRight})
}

// trimPathLeft shortens s to maxLen runes by dropping its head
func trimPathLeft(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return "…"
	}
	return "…" + string(runes[len(runes)-maxLen+1:])
}
