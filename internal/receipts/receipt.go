package receipts

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"

	"rentflow-backend/internal/models"
	"rentflow-backend/internal/services"
	"rentflow-backend/internal/timeutil"
)

// Number is the receipt reference printed on the PDF and used as its archive key
func Number(tx *models.Transaction) string {
	ref := tx.PaymentID
	if ref == "" {
		ref = tx.TransactionID
	}
	if ref == "" {
		ref = fmt.Sprintf("%d", tx.SubmittedAt.Unix())
	}
	if len(ref) > 12 {
		ref = ref[:12]
	}
	return fmt.Sprintf("RF-%s-%s", timeutil.ToEAT(tx.SubmittedAt).Format("20060102"), strings.ToUpper(ref))
}

// Render draws a one-page A4 receipt for a submitted payment
func Render(tx *models.Transaction) ([]byte, error) {
	if tx == nil {
		return nil, fmt.Errorf("no transaction to render")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle("Rent payment receipt "+Number(tx), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(180, 10, "Rent Payment Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(180, 6, fmt.Sprintf("Receipt No: %s", Number(tx)), "", 1, "C", false, 0, "")
	pdf.CellFormat(180, 6, fmt.Sprintf("Submitted: %s", timeutil.ToEAT(tx.SubmittedAt).Format(timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(180, 8, "Payment Details", "1", 1, "L", true, 0, "")

	rows := [][2]string{
		{"Property", tx.PropertyName},
		{"Unit", tx.UnitName},
		{"Amount", services.FormatCurrency(tx.Amount)},
		{"Method", methodLabel(tx)},
	}
	if tx.PaymentID != "" {
		rows = append(rows, [2]string{"Payment ID", tx.PaymentID})
	}
	if tx.TransactionID != "" {
		rows = append(rows, [2]string{"Transaction ID", tx.TransactionID})
	}
	if tx.Notes != "" {
		rows = append(rows, [2]string{"Notes", tx.Notes})
	}

	pdf.SetFont("Arial", "", 11)
	for _, row := range rows {
		pdf.CellFormat(50, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(130, 8, row[1], "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "I", 9)
	if tx.Method == models.FlowRecord {
		pdf.MultiCell(180, 5, "This payment was recorded by the tenant and is pending confirmation by the landlord.", "", "L", false)
	} else {
		pdf.MultiCell(180, 5, "This payment was initiated through the provider shown above. It is final once the provider confirms it.", "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func methodLabel(tx *models.Transaction) string {
	switch tx.Method {
	case models.FlowRecord:
		return "Manual (recorded by tenant)"
	case models.FlowPay:
		if tx.Provider != "" {
			return string(tx.Provider)
		}
		return "Provider payment"
	}
	return string(tx.Method)
}
