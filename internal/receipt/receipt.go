// Package receipt renders PDF purchase receipts.
package receipt

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Data is the content of one receipt. Amounts are preformatted.
type Data struct {
	SellerName    string
	SellerURL     string
	ReferenceCode string
	DatePaid      string
	BuyerName     string
	BuyerEmail    string
	BuyerPhone    string
	ProductName   string
	LicenseType   string
	DeliveryType  string
	Total         string
	Status        string
	LicenseKey    string
}

// Render returns the receipt as PDF bytes.
func Render(d Data) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		col.New(4).Add(
			text.New(d.SellerName, props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(d.SellerURL, props.Text{Top: 5, Size: 8, Align: align.Right}),
		),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Order: "+d.ReferenceCode, props.Text{Top: 0}),
			text.New("Date paid: "+d.DatePaid, props.Text{Top: 5}),
			text.New("Status: "+d.Status, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Billed to", props.Text{Style: fontstyle.Bold}),
			text.New(d.BuyerName, props.Text{Top: 5}),
			text.New(d.BuyerEmail, props.Text{Top: 9}),
			text.New(d.BuyerPhone, props.Text{Top: 13}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, d.Total+" paid on "+d.DatePaid, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "License", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Delivery", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(12,
		text.NewCol(6, d.ProductName, props.Text{Size: 9}),
		text.NewCol(2, d.LicenseType, props.Text{Size: 9}),
		text.NewCol(2, d.DeliveryType, props.Text{Size: 9}),
		text.NewCol(2, d.Total, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, d.Total, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)

	if d.LicenseKey != "" {
		m.AddRow(15,
			text.NewCol(12, "License key: "+d.LicenseKey, props.Text{Size: 10, Top: 5}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt pdf: %w", err)
	}
	return doc.GetBytes(), nil
}
