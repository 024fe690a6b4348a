// Package statement renders a customer's account statement as a PDF.
package statement

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jung-kurt/gofpdf/v2"

	"github.com/akywe-ledger/akywe/internal/app/ledger"
	"github.com/akywe-ledger/akywe/internal/domain"
)

// Data is everything a statement shows.
type Data struct {
	Shop        string
	Currency    string
	GeneratedAt time.Time
	History     ledger.History

	// FontPath is a TrueType font with UTF-8 coverage for names and items
	// outside Latin-1, such as Burmese. Empty means the core Arial font.
	FontPath string
}

// Render writes an A4 statement for d.History to w.
func Render(w io.Writer, d Data) error {
	if d.Shop == "" {
		d.Shop = "Bakery"
	}
	if d.Currency == "" {
		d.Currency = "Ks"
	}
	money := func(a domain.Amount) string {
		return humanize.Comma(int64(a)) + " " + d.Currency
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if d.FontPath != "" {
		family = "statement"
		pdf.AddUTF8Font(family, "", d.FontPath)
		pdf.AddUTF8Font(family, "B", d.FontPath)
		tr = func(s string) string { return s }
	}
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle(d.Shop+" statement", true)
	pdf.AddPage()

	// Header
	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(190, 10, tr(d.Shop+" - Customer Statement"), "", 1, "C", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", d.GeneratedAt.Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Customer block
	c := d.History.Customer
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont(family, "B", 12)
	pdf.CellFormat(190, 8, "Customer", "1", 1, "L", true, 0, "")
	pdf.SetFont(family, "", 11)
	pdf.CellFormat(95, 7, tr("Name: "+c.Name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Phone: "+c.Phone), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Debts
	var debtTotal domain.Amount
	sectionHeader(pdf, family, "Debts")
	columns(pdf, family, []float64{40, 100, 50}, []string{"Date", "Item", "Amount"})
	pdf.SetFont(family, "", 10)
	for _, debt := range d.History.Debts {
		debtTotal = debtTotal.Add(debt.Total)
		pdf.CellFormat(40, 6, debt.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(100, 6, tr(debt.Item), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, money(debt.Total), "1", 1, "R", false, 0, "")
	}
	if len(d.History.Debts) == 0 {
		pdf.CellFormat(190, 6, "No debts recorded", "1", 1, "C", false, 0, "")
	}
	pdf.Ln(5)

	// Payments
	var paid domain.Amount
	sectionHeader(pdf, family, "Payments")
	columns(pdf, family, []float64{40, 150}, []string{"Date", "Amount"})
	pdf.SetFont(family, "", 10)
	for _, p := range d.History.Payments {
		paid = paid.Add(p.Amount)
		pdf.CellFormat(40, 6, p.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(150, 6, money(p.Amount), "1", 1, "R", false, 0, "")
	}
	if len(d.History.Payments) == 0 {
		pdf.CellFormat(190, 6, "No payments recorded", "1", 1, "C", false, 0, "")
	}
	pdf.Ln(5)

	// Summary
	sectionHeader(pdf, family, "Summary")
	pdf.SetFont(family, "", 11)
	pdf.CellFormat(95, 8, "Total debt: "+money(debtTotal), "1", 0, "C", false, 0, "")
	pdf.CellFormat(95, 8, "Total paid: "+money(paid), "1", 1, "C", false, 0, "")

	balanceText := "FULLY PAID"
	if d.History.Balance > 0 {
		pdf.SetFillColor(255, 200, 200)
		balanceText = "Outstanding balance: " + money(d.History.Balance)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(190, 10, balanceText, "1", 1, "C", true, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render statement: %w", err)
	}
	return nil
}

func sectionHeader(pdf *gofpdf.Fpdf, family, title string) {
	pdf.SetFont(family, "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(190, 8, title, "1", 1, "L", true, 0, "")
}

func columns(pdf *gofpdf.Fpdf, family string, widths []float64, labels []string) {
	pdf.SetFont(family, "B", 10)
	pdf.SetFillColor(200, 200, 200)
	for i, label := range labels {
		ln := 0
		if i == len(labels)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 7, label, "1", ln, "C", true, 0, "")
	}
}
