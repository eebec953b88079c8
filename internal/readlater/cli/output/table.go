package output

import (
	"io"
	"strconv"
	"strings"

	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const titleWidth = 60

type Table struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
}

func NewTable(w io.Writer, headers []string) *Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{ //nolint:exhaustruct
			Row: tw.CellConfig{ //nolint:exhaustruct
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone}, //nolint:exhaustruct
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},   //nolint:exhaustruct
			},
			Header: tw.CellConfig{ //nolint:exhaustruct
				Formatting: tw.CellFormatting{AutoFormat: tw.On},   //nolint:exhaustruct
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft}, //nolint:exhaustruct
			},
		}),
		tablewriter.WithRendition(tw.Rendition{ //nolint:exhaustruct
			Borders: tw.BorderNone,
			Settings: tw.Settings{ //nolint:exhaustruct
				Separators: tw.Separators{ShowHeader: tw.Off}, //nolint:exhaustruct
			},
		}),
	)

	return &Table{table: table, header: headers}
}

func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

func (t *Table) Render() error {
	t.table.Header(t.header)

	if err := t.table.Bulk(t.rows); err != nil {
		return err
	}

	return t.table.Render()
}

// Articles renders one row per article.
func Articles(w io.Writer, articles []models.Article) error {
	t := NewTable(w, []string{"ID", "Title", "Tags", "Saved", "URL"})

	for _, a := range articles {
		saved := ""
		if !a.CreatedAt.IsZero() {
			saved = a.CreatedAt.Local().Format("2006-01-02")
		}

		t.AddRow([]string{strconv.Itoa(a.ID), truncate(a.Title, titleWidth), TagList(a.Tags), saved, a.URL})
	}

	return t.Render()
}

func Tags(w io.Writer, tags []models.Tag) error {
	t := NewTable(w, []string{"ID", "Name"})

	for _, tag := range tags {
		t.AddRow([]string{strconv.Itoa(tag.ID), tag.Name})
	}

	return t.Render()
}

// TagList formats tags as "name#id" joined by commas.
func TagList(tags []models.Tag) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, tag.Name+"#"+strconv.Itoa(tag.ID))
	}

	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}
