package handler

import (
	"net/http"
	"reflect"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/luminary/luminary-backend/internal/invoice/calc"
	"github.com/luminary/luminary-backend/internal/invoice/domain"
	"github.com/luminary/luminary-backend/internal/invoice/export"
	"github.com/luminary/luminary-backend/pkg/config"
	apperrors "github.com/luminary/luminary-backend/pkg/errors"
	"github.com/luminary/luminary-backend/pkg/httputil"
	"github.com/luminary/luminary-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const maxBodySize = 1 << 20

func init() {
	httputil.RegisterCustomType(func(v reflect.Value) interface{} {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
}

// Handler serves invoice and quotation computations
type Handler struct {
	defaults config.InvoiceConfig
	log      *logger.Logger
}

// NewHandler creates a new invoice handler. defaults fill in tax settings
// and rates a request leaves out.
func NewHandler(defaults config.InvoiceConfig, log *logger.Logger) *Handler {
	return &Handler{
		defaults: defaults,
		log:      log,
	}
}

// Routes mounts the invoice endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Post("/invoice/totals", h.Totals)
	r.Post("/invoice/export", h.Export)
	r.Post("/quotation/totals", h.QuotationTotals)
}

// LineItemRequest is one invoice row as sent by the client. A missing rate
// takes the configured default.
type LineItemRequest struct {
	ID          string           `json:"id" validate:"required"`
	Date        string           `json:"date"`
	VehicleNo   string           `json:"vehicleNo"`
	Description string           `json:"description" validate:"max=200"`
	Qty         decimal.Decimal  `json:"qty"`
	Unit        string           `json:"unit" validate:"max=16"`
	Rate        *decimal.Decimal `json:"rate"`
}

// TotalsRequest is the body of POST /invoice/totals
type TotalsRequest struct {
	Items   []LineItemRequest `json:"items" validate:"max=500,unique=ID,dive"`
	TaxRate *decimal.Decimal  `json:"taxRate" validate:"omitempty,gte=0,lte=100"`
	TaxType string            `json:"taxType" validate:"max=16"`
}

// ExportRequest is the body of POST /invoice/export
type ExportRequest struct {
	TotalsRequest
	InvoiceNo   string `json:"invoiceNo" validate:"max=64"`
	InvoiceDate string `json:"invoiceDate" validate:"max=32"`
	BillTo      string `json:"billTo" validate:"max=200"`
}

// TotalsResponse carries exact totals alongside their printed form
type TotalsResponse struct {
	TaxRate       decimal.Decimal      `json:"taxRate"`
	TaxType       domain.TaxRegime     `json:"taxType"`
	Totals        domain.Totals        `json:"totals"`
	Display       domain.DisplayTotals `json:"display"`
	AmountInWords string               `json:"amountInWords"`
}

// Totals handles POST /invoice/totals
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	var req TotalsRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	items, settings, err := h.Resolve(req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totals := calc.Compute(items, settings)

	h.log.Debug().
		Str("request_id", httputil.GetRequestID(r.Context())).
		Int("items", len(items)).
		Str("tax_type", string(settings.TaxType)).
		Msg("invoice totals computed")

	httputil.JSON(w, http.StatusOK, TotalsResponse{
		TaxRate:       settings.TaxRate,
		TaxType:       settings.TaxType,
		Totals:        totals,
		Display:       totals.Display(),
		AmountInWords: calc.AmountInWords(totals.GrandTotal),
	})
}

// Export handles POST /invoice/export and returns an XLSX download
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	items, settings, err := h.Resolve(req.TotalsRequest)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	data, err := export.XLSX(export.Invoice{
		Number:   req.InvoiceNo,
		Date:     req.InvoiceDate,
		BillTo:   req.BillTo,
		Items:    items,
		Settings: settings,
	})
	if err != nil {
		h.log.Error().Err(err).Str("invoice_no", req.InvoiceNo).Msg("invoice export failed")
		httputil.Error(w, apperrors.Internal("Failed to export invoice"))
		return
	}

	h.log.Info().
		Str("request_id", httputil.GetRequestID(r.Context())).
		Str("invoice_no", req.InvoiceNo).
		Int("items", len(items)).
		Int("bytes", len(data)).
		Msg("invoice exported")

	httputil.Attachment(w, export.ContentType, exportFilename(req.InvoiceNo), data)
}

// QuotationItemRequest is one lump-sum quotation line
type QuotationItemRequest struct {
	ID          string          `json:"id" validate:"required"`
	Description string          `json:"description" validate:"max=200"`
	Unit        string          `json:"unit" validate:"max=16"`
	Rate        decimal.Decimal `json:"rate"`
}

// QuotationRequest is the body of POST /quotation/totals
type QuotationRequest struct {
	Items         []QuotationItemRequest `json:"items" validate:"max=500,unique=ID,dive"`
	ServiceCharge *decimal.Decimal       `json:"serviceCharge" validate:"omitempty,gte=0,lte=100"`
	GST           *decimal.Decimal       `json:"gst" validate:"omitempty,gte=0,lte=100"`
}

// QuotationDisplay holds whole-rupee figures with Indian grouping
type QuotationDisplay struct {
	SubTotal      string `json:"subTotal"`
	ServiceCharge string `json:"serviceCharge"`
	Taxable       string `json:"taxable"`
	GST           string `json:"gst"`
	GrandTotal    string `json:"grandTotal"`
}

// QuotationResponse is the body returned by POST /quotation/totals
type QuotationResponse struct {
	ServiceChargeRate decimal.Decimal        `json:"serviceChargeRate"`
	GSTRate           decimal.Decimal        `json:"gstRate"`
	Totals            domain.QuotationTotals `json:"totals"`
	Display           QuotationDisplay       `json:"display"`
	AmountInWords     string                 `json:"amountInWords"`
}

// QuotationTotals handles POST /quotation/totals
func (h *Handler) QuotationTotals(w http.ResponseWriter, r *http.Request) {
	var req QuotationRequest
	if err := h.decode(w, r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	rates := domain.QuotationRates{
		ServiceCharge: orDefault(req.ServiceCharge, h.defaults.QuotationServiceCharge),
		GST:           orDefault(req.GST, h.defaults.QuotationGST),
	}

	items := make([]domain.QuotationItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.QuotationItem{
			ID:          it.ID,
			Description: it.Description,
			Unit:        it.Unit,
			Rate:        it.Rate,
		})
	}

	totals := calc.ComputeQuotation(items, rates)

	httputil.JSON(w, http.StatusOK, QuotationResponse{
		ServiceChargeRate: rates.ServiceCharge,
		GSTRate:           rates.GST,
		Totals:            totals,
		Display: QuotationDisplay{
			SubTotal:      calc.FormatIndian(totals.SubTotal, 0),
			ServiceCharge: calc.FormatIndian(totals.ServiceCharge, 0),
			Taxable:       calc.FormatIndian(totals.Taxable, 0),
			GST:           calc.FormatIndian(totals.GST, 0),
			GrandTotal:    calc.FormatIndian(totals.GrandTotal, 0),
		},
		AmountInWords: calc.AmountInWords(totals.GrandTotal),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := httputil.DecodeJSON(r, v); err != nil {
		return err
	}
	return httputil.Validate(v)
}

// Resolve applies configured defaults and converts the request into
// computation inputs
func (h *Handler) Resolve(req TotalsRequest) ([]domain.LineItem, domain.TaxSettings, error) {
	taxType := req.TaxType
	if taxType == "" {
		taxType = h.defaults.DefaultTaxType
	}
	regime, err := domain.ParseTaxRegime(taxType)
	if err != nil {
		return nil, domain.TaxSettings{}, apperrors.Validation(map[string]string{
			"taxType": "must be one of: SPLIT SINGLE CGST_SGST IGST",
		})
	}

	settings := domain.TaxSettings{
		TaxRate: orDefault(req.TaxRate, h.defaults.DefaultTaxRate),
		TaxType: regime,
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.LineItem{
			ID:          it.ID,
			Date:        it.Date,
			VehicleNo:   it.VehicleNo,
			Description: it.Description,
			Quantity:    it.Qty,
			Unit:        it.Unit,
			Rate:        orDefault(it.Rate, h.defaults.DefaultRate),
		})
	}

	return items, settings, nil
}

func orDefault(v *decimal.Decimal, def float64) decimal.Decimal {
	if v != nil {
		return *v
	}
	return decimal.NewFromFloat(def)
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func exportFilename(invoiceNo string) string {
	name := unsafeFilename.ReplaceAllString(invoiceNo, "-")
	if name == "" || name == "-" {
		return "invoice.xlsx"
	}
	return "invoice-" + name + ".xlsx"
}
