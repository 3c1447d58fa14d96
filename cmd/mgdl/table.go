package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type align int

const (
	alignLeft align = iota
	alignRight
)

type tableSpec struct {
	headers []string
	aligns  []align
	rows    [][]string
	footer  []string
}

func (s *tableSpec) add(row ...string) {
	s.rows = append(s.rows, row)
}

func (s *tableSpec) render() string {
	columns := len(s.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(padRow(s.headers, columns))
	for _, row := range s.rows {
		tw.AppendRow(padRow(row, columns))
	}
	if len(s.footer) > 0 {
		tw.AppendFooter(padRow(s.footer, columns))
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		alignment := text.AlignLeft
		if i < len(s.aligns) && s.aligns[i] == alignRight {
			alignment = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       alignment,
			AlignHeader: text.AlignLeft,
			AlignFooter: alignment,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func padRow(values []string, columns int) table.Row {
	row := make(table.Row, columns)
	for i := range columns {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
