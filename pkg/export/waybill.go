package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Party is a shipper or receiver block on the waybill.
type Party struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// WaybillEvent is one tracking line printed on the waybill.
type WaybillEvent struct {
	When        string
	Location    string
	Status      string
	Description string
}

// Waybill carries the printable shipment details.
type Waybill struct {
	TrackingNumber   string
	Status           string
	Created          string
	Shipper          Party
	Receiver         Party
	Origin           string
	Destination      string
	Packages         int
	Weight           float64
	Product          string
	PaymentMode      string
	Freight          float64
	ExpectedDelivery string
	Comments         string
	Events           []WaybillEvent
}

// RenderWaybill prints a single shipment on portrait A4.
func RenderWaybill(w Waybill) ([]byte, error) {
	if w.TrackingNumber == "" {
		return nil, fmt.Errorf("waybill requires a tracking number")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, "COLIS SELECT - WAYBILL", "", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "B", 14)
	pdf.CellFormat(0, 9, tr(w.TrackingNumber), "1", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(90, 6, tr("Status: "+w.Status), "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, tr("Created: "+w.Created), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	top := pdf.GetY()
	party(pdf, tr, "SHIPPER", w.Shipper, 15, top)
	party(pdf, tr, "RECEIVER", w.Receiver, 107, top)
	pdf.SetY(top + 34)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 7, "SHIPMENT", "B", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	lines := [][2]string{
		{"Route", w.Origin + " -> " + w.Destination},
		{"Packages", fmt.Sprintf("%d", w.Packages)},
		{"Total weight", fmt.Sprintf("%.2f kg", w.Weight)},
		{"Product", w.Product},
		{"Payment mode", w.PaymentMode},
		{"Freight", fmt.Sprintf("%.2f EUR", w.Freight)},
		{"Expected delivery", w.ExpectedDelivery},
		{"Comments", w.Comments},
	}
	for _, line := range lines {
		pdf.CellFormat(45, 6, line[0], "", 0, "", false, 0, "")
		pdf.MultiCell(0, 6, tr(line[1]), "", "", false)
	}

	if len(w.Events) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, "TRACKING", "B", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 8)
		for _, ev := range w.Events {
			pdf.CellFormat(35, 6, tr(ev.When), "", 0, "", false, 0, "")
			pdf.CellFormat(35, 6, tr(ev.Location), "", 0, "", false, 0, "")
			pdf.CellFormat(30, 6, tr(ev.Status), "", 0, "", false, 0, "")
			pdf.MultiCell(0, 6, tr(ev.Description), "", "", false)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render waybill: %w", err)
	}
	return buf.Bytes(), nil
}

func party(pdf *gofpdf.Fpdf, tr func(string) string, title string, p Party, x, y float64) {
	pdf.SetXY(x, y)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(88, 7, title, "1", 2, "", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range []string{p.Name, p.Address, p.Phone, p.Email} {
		pdf.CellFormat(88, 6, tr(line), "LR", 2, "", false, 0, "")
	}
	pdf.CellFormat(88, 1, "", "LRB", 2, "", false, 0, "")
}
