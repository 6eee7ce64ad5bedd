package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/pkg/export"
	appErrors "github.com/noah-isme/colisselect-api/pkg/errors"
)

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

const waybillEventLimit = 8

type exportShipmentReader interface {
	List(ctx context.Context, filter models.ShipmentFilter) ([]models.Shipment, int, error)
	FindByID(ctx context.Context, id int64) (*models.Shipment, error)
}

type exportHistoryReader interface {
	ListByShipment(ctx context.Context, shipmentID int64) ([]models.TrackingEvent, error)
}

// ExportResult is a rendered document ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders shipment listings and waybills.
type ExportService struct {
	shipments exportShipmentReader
	history   exportHistoryReader
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(shipments exportShipmentReader, history exportHistoryReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{shipments: shipments, history: history, logger: logger, now: time.Now}
}

var shipmentExportColumns = []export.Column{
	{Key: "tracking_number", Title: "Tracking Number", Width: 2},
	{Key: "status", Title: "Status", Width: 1.3},
	{Key: "shipper", Title: "Shipper", Width: 1.5},
	{Key: "receiver", Title: "Receiver", Width: 1.5},
	{Key: "origin", Title: "Origin", Width: 1.2},
	{Key: "destination", Title: "Destination", Width: 1.2},
	{Key: "packages", Title: "Packages", Width: 0.7},
	{Key: "weight", Title: "Weight (kg)", Width: 0.8},
	{Key: "freight", Title: "Freight", Width: 0.8},
	{Key: "created", Title: "Created", Width: 1.2},
}

// Shipments renders every shipment matching the filter as CSV or PDF.
func (s *ExportService) Shipments(ctx context.Context, format string, filter models.ShipmentFilter) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.InvalidField("format", "format must be csv or pdf")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, appErrors.InvalidField("status", "unknown shipment status")
	}

	filter.Unpaged = true
	shipments, _, err := s.shipments.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "shipments", "export")
	}

	table := export.Table{Title: "Shipments", Columns: shipmentExportColumns}
	for _, sh := range shipments {
		table.Rows = append(table.Rows, map[string]string{
			"tracking_number": sh.TrackingNumberValue(),
			"status":          string(sh.Status),
			"shipper":         sh.ShipperName,
			"receiver":        sh.ReceiverName,
			"origin":          sh.Origin,
			"destination":     sh.Destination,
			"packages":        strconv.Itoa(sh.Packages),
			"weight":          strconv.FormatFloat(sh.TotalWeight, 'f', 2, 64),
			"freight":         strconv.FormatFloat(sh.TotalFreight, 'f', 2, 64),
			"created":         sh.DateCreated.Format("2006-01-02 15:04"),
		})
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case FormatPDF:
		data, err = export.RenderPDF(table)
		contentType = "application/pdf"
	default:
		data, err = export.RenderCSV(table)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("shipments exported", zap.String("format", format), zap.Int("rows", len(table.Rows)))
	return &ExportResult{
		Filename:    fmt.Sprintf("shipments-%s.%s", s.now().UTC().Format("20060102-150405"), format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Waybill renders a printable PDF for one shipment with its latest history entries.
func (s *ExportService) Waybill(ctx context.Context, id int64) (*ExportResult, error) {
	shipment, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "shipment", "load")
	}
	tn := shipment.TrackingNumberValue()
	if tn == "" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "shipment has no tracking number yet")
	}
	events, err := s.history.ListByShipment(ctx, id)
	if err != nil {
		return nil, storeError(err, "tracking history", "list")
	}
	if len(events) > waybillEventLimit {
		events = events[:waybillEventLimit]
	}

	waybill := export.Waybill{
		TrackingNumber:   tn,
		Status:           string(shipment.Status),
		Created:          shipment.DateCreated.Format("2006-01-02 15:04"),
		Shipper:          export.Party{Name: shipment.ShipperName, Address: shipment.ShipperAddress, Phone: shipment.ShipperPhone, Email: shipment.ShipperEmail},
		Receiver:         export.Party{Name: shipment.ReceiverName, Address: shipment.ReceiverAddress, Phone: shipment.ReceiverPhone, Email: shipment.ReceiverEmail},
		Origin:           shipment.Origin,
		Destination:      shipment.Destination,
		Packages:         shipment.Packages,
		Weight:           shipment.TotalWeight,
		Product:          shipment.Product,
		PaymentMode:      shipment.PaymentMode,
		Freight:          shipment.TotalFreight,
		ExpectedDelivery: shipment.ExpectedDelivery,
		Comments:         shipment.Comments,
	}
	for _, e := range events {
		waybill.Events = append(waybill.Events, export.WaybillEvent{
			When:        e.DateTime.Format("2006-01-02 15:04"),
			Location:    e.Location,
			Status:      e.Status,
			Description: e.Description,
		})
	}

	data, err := export.RenderWaybill(waybill)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render waybill")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("waybill-%s.pdf", tn),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}
