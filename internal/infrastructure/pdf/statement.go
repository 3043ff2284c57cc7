// Package pdf renders printable contact statements with maroto.
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"hesap/internal/core/types"
	"hesap/internal/domain/balance"
	"hesap/internal/domain/catalog"
)

var (
	colorPrimary = &props.Color{Red: 33, Green: 64, Blue: 95}
	colorGray    = &props.Color{Red: 110, Green: 110, Blue: 110}
)

const dateLayout = "2006-01-02"

// StatementRenderer renders a contact statement as an A4 PDF.
type StatementRenderer struct {
	company string
}

// NewStatementRenderer creates a renderer that prints company in the header.
func NewStatementRenderer(company string) *StatementRenderer {
	return &StatementRenderer{company: company}
}

// Render produces the PDF bytes.
func (r *StatementRenderer) Render(_ context.Context, contact *catalog.Contact, st *balance.Statement) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Statement "+contact.Code, true).
		WithAuthor(r.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(r.company, contact, st))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	m.AddRows(openingRow(st))
	m.AddRows(statementRows(st.Rows)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(st))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate statement pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(company string, contact *catalog.Contact, st *balance.Statement) core.Row {
	return row.New(20).Add(
		col.New(7).Add(
			text.New(company, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(contact.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 9}),
			text.New("Code: "+contact.Code, props.Text{Size: 8, Top: 15, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("ACCOUNT STATEMENT", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("%s .. %s", st.From.Format(dateLayout), st.To.Format(dateLayout)),
				props.Text{Size: 8, Align: align.Right, Top: 8, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(8).Add(
		h("Date", 2, align.Left),
		h("Document", 4, align.Left),
		h("Debit", 2, align.Right),
		h("Credit", 2, align.Right),
		h("Balance", 2, align.Right),
	)
}

func openingRow(st *balance.Statement) core.Row {
	return row.New(6).Add(
		col.New(2).Add(text.New(st.From.Format(dateLayout), props.Text{Size: 8, Top: 1})),
		col.New(8).Add(text.New("Opening balance", props.Text{Style: fontstyle.Italic, Size: 8, Top: 1})),
		col.New(2).Add(text.New(types.FormatMoney(st.Opening), props.Text{Size: 8, Align: align.Right, Top: 1})),
	)
}

func statementRows(rows []balance.StatementRow) []core.Row {
	out := make([]core.Row, 0, len(rows))
	for _, sr := range rows {
		out = append(out, row.New(6).Add(
			col.New(2).Add(text.New(sr.Date.Format(dateLayout), props.Text{Size: 8, Top: 1})),
			col.New(4).Add(text.New(describe(sr), props.Text{Size: 8, Top: 1})),
			col.New(2).Add(text.New(amount(sr.Debit), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(amount(sr.Credit), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(types.FormatMoney(sr.Balance), props.Text{Size: 8, Align: align.Right, Top: 1})),
		))
	}
	return out
}

func totalsRow(st *balance.Statement) core.Row {
	bold := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2}
	return row.New(10).Add(
		col.New(6).Add(text.New("Closing balance", props.Text{Style: fontstyle.Bold, Size: 9, Top: 2})),
		col.New(2).Add(text.New(types.FormatMoney(st.TotalDebit), bold)),
		col.New(2).Add(text.New(types.FormatMoney(st.TotalCredit), bold)),
		col.New(2).Add(text.New(types.FormatMoney(st.Closing), bold)),
	)
}

// describe renders the document column of a statement row.
func describe(sr balance.StatementRow) string {
	switch {
	case sr.Reference != "" && sr.DocType != "":
		return fmt.Sprintf("%s %s", sr.DocType, sr.Reference)
	case sr.Reference != "":
		return sr.Reference
	default:
		return string(sr.Source)
	}
}

// amount leaves zero cells blank.
func amount(d types.Money) string {
	if d.IsZero() {
		return ""
	}
	return types.FormatMoney(d)
}
