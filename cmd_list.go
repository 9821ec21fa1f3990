package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"stockRatings/internal/format"
	"stockRatings/internal/model"
	"stockRatings/internal/query"
)

var (
	listIn     string
	listParams query.Params
)

// listColumns are the table headers, each keyed by the column it sorts on.
var listColumns = []struct {
	label  string
	column string
}{
	{"Ticker", query.ColumnTicker},
	{"Company", query.ColumnCompany},
	{"Target From", query.ColumnTargetFrom},
	{"Target To", query.ColumnTargetTo},
	{"Delta", ""},
	{"Action", query.ColumnAction},
	{"Brokerage", query.ColumnBrokerage},
	{"Rating From", query.ColumnRatingFrom},
	{"Rating To", query.ColumnRatingTo},
	{"Time", query.ColumnTime},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show one page of the flattened ratings as a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := listIn
		if in == "" {
			in = cfg.Files.Flattened
		}
		ratings, err := loadRatings(in)
		if err != nil {
			return err
		}
		p := listParams
		if p.PageSize == 0 {
			p.PageSize = cfg.Server.PageSize
		}
		page, err := query.Run(ratings, p)
		if err != nil {
			return err
		}
		renderPage(cmd.OutOrStdout(), page)
		return nil
	},
}

// loadRatings reads a flattened items file into typed ratings.
func loadRatings(path string) ([]model.StockRating, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return model.DecodeRatings(data)
}

func renderPage(w io.Writer, page query.Page) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, 0, len(listColumns))
	for _, c := range listColumns {
		if c.column == "" {
			header = append(header, c.label)
			continue
		}
		header = append(header, c.label+" "+format.SortChar(c.column, page.SortBy, page.Ascending))
	}
	t.AppendHeader(header)

	for _, r := range page.Items {
		from, to := r.TargetFrom.Float(), r.TargetTo.Float()
		when, err := format.ColombianDateTime(r.Time)
		if err != nil {
			when = r.Time
		}
		t.AppendRow(table.Row{
			r.Ticker,
			r.Company,
			format.AsMoney(from),
			format.AsMoney(to),
			format.Delta(from, to),
			r.Action,
			r.Brokerage,
			r.RatingFrom,
			r.RatingTo,
			when,
		})
	}

	pages := 0
	if page.PageSize > 0 {
		pages = page.Total / page.PageSize
		if page.Total%page.PageSize != 0 {
			pages++
		}
	}
	t.AppendFooter(table.Row{fmt.Sprintf("page %d/%d", page.Offset+1, pages), fmt.Sprintf("%d ratings", page.Total)})
	t.SetStyle(table.StyleRounded)
	// keep the sort glyphs as-is; "v" must not become "V"
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}

func init() {
	listCmd.Flags().StringVar(&listIn, "in", "", "flattened items file (default from config)")
	listCmd.Flags().IntVar(&listParams.Offset, "offset", 0, "page index")
	listCmd.Flags().IntVar(&listParams.PageSize, "page-size", 0, "rows per page (default from config)")
	listCmd.Flags().StringVar(&listParams.SortBy, "sortby", query.DefaultSortBy, "sort column")
	listCmd.Flags().BoolVar(&listParams.Ascending, "asc", false, "sort ascending")
	listCmd.Flags().StringVar(&listParams.Query, "query", "", "ticker substring filter")
	listCmd.Flags().StringSliceVar(&listParams.Actions, "action", nil, "keep these actions (any of, comma-separated)")
	listCmd.Flags().StringSliceVar(&listParams.Brokerages, "brokerage", nil, "keep these brokerages (any of, comma-separated)")
	listCmd.Flags().StringVar(&listParams.Direction, "direction", "", "rating direction: up or down")
	listCmd.Flags().BoolVar(&listParams.Raised, "raised", false, "keep raised targets only")
	rootCmd.AddCommand(listCmd)
}
