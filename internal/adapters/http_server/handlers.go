package httpserver

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"itinerary_pricing/internal/adapters/xlsx"
	"itinerary_pricing/internal/app"
	"itinerary_pricing/internal/domain"
	"itinerary_pricing/internal/pricing"
)

const maxBody = 1 << 20

type Handlers struct{ P *app.PricingService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1/packages/{id}", func(r chi.Router) {
		r.Get("/pricing", h.getPricing)
		r.Put("/pricing", h.putPricing)
		r.Post("/pricing/lines", h.editLine)
		r.Post("/pricing/markup", h.applyMarkup)
		r.Put("/pricing/globals", h.setGlobal)
		r.Put("/pricing/options/{option}/gst", h.setOptionGst)
		r.Put("/pricing/options/{option}/client-price", h.setClientPrice)
		r.Get("/pricing/export.xlsx", h.exportPricing)
		r.Get("/quotation", h.getQuotation)
		r.Get("/proposals", h.listProposals)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "Conflict", "pricing was changed by someone else; reload and retry")
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("itinerary builder refused credentials")
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", "itinerary builder unavailable")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeCached serves v with an ETag and answers 304 when the client already holds it.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write body")
	}
}

// decodeBody reads a JSON object keeping numbers as json.Number. An empty body decodes to nothing.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	return true
}

func packageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

func optionParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "option"))
	if err != nil || n < 1 {
		writeProblem(w, http.StatusBadRequest, "Invalid Option", "option must be a positive integer")
		return 0, false
	}
	return n, true
}

// intOr reads a loosely typed integer, returning def when the value is missing or not a number.
func intOr(v any, def int) int {
	if n, ok := domain.IntFrom(v); ok {
		return n
	}
	return def
}

func (h *Handlers) getPricing(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	v, err := h.P.View(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, v)
}

type pricingRequest struct {
	PricingData       map[string]domain.PricingLine `json:"pricing_data"`
	FinalClientPrices map[string]domain.FlexDecimal `json:"final_client_prices"`
	OptionGstSettings map[string]domain.GstSettings `json:"option_gst_settings"`
	BaseMarkup        any                           `json:"base_markup"`
	ExtraMarkup       any                           `json:"extra_markup"`
	CGST              any                           `json:"cgst"`
	SGST              any                           `json:"sgst"`
	IGST              any                           `json:"igst"`
	TCS               any                           `json:"tcs"`
	Discount          any                           `json:"discount"`
	Version           any                           `json:"version"`
}

func (req pricingRequest) record(id int64) (domain.ItineraryPricing, *int64) {
	rec := domain.EmptyPricing(id, domain.Rates{
		BaseMarkup:  domain.Amount(req.BaseMarkup),
		ExtraMarkup: domain.Amount(req.ExtraMarkup),
		CGST:        domain.Amount(req.CGST),
		SGST:        domain.Amount(req.SGST),
		IGST:        domain.Amount(req.IGST),
		TCS:         domain.Amount(req.TCS),
		Discount:    domain.Amount(req.Discount),
	})
	for k, v := range req.PricingData {
		rec.PricingData[k] = v
	}
	for k, v := range req.FinalClientPrices {
		rec.FinalClientPrices[k] = v
	}
	for k, v := range req.OptionGstSettings {
		rec.OptionGstSettings[k] = v
	}
	var version *int64
	if n, ok := domain.IntFrom(req.Version); ok && n >= 0 {
		v := int64(n)
		version = &v
	}
	return rec, version
}

func (h *Handlers) putPricing(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	var req pricingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, version := req.record(id)
	v, err := h.P.Replace(r.Context(), id, rec, version)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type lineRequest struct {
	Option any    `json:"option"`
	Day    any    `json:"day"`
	Index  any    `json:"index"`
	Field  string `json:"field"`
	Value  any    `json:"value"`
}

func (h *Handlers) editLine(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	var req lineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	v, err := h.P.EditLine(r.Context(), id, app.LineEdit{
		Option: intOr(req.Option, 0),
		Day:    intOr(req.Day, 0),
		Index:  intOr(req.Index, -1),
		Field:  domain.LineField(req.Field),
		Value:  req.Value,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type markupRequest struct {
	Option      any    `json:"option"`
	BaseMarkup  any    `json:"base_markup"`
	ExtraMarkup any    `json:"extra_markup"`
	Scope       string `json:"scope"`
}

func (h *Handlers) applyMarkup(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	var req markupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	scope, ok := pricing.ParseScope(req.Scope)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid Scope", fmt.Sprintf("scope %q must be option or all", req.Scope))
		return
	}
	v, err := h.P.ApplyMarkup(r.Context(), id, app.MarkupInput{
		Option: intOr(req.Option, 0),
		Base:   req.BaseMarkup,
		Extra:  req.ExtraMarkup,
		Scope:  scope,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type fieldRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (h *Handlers) setGlobal(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	var req fieldRequest
	if !decodeBody(w, r, &req) {
		return
	}
	field, ok := domain.ParseGlobalField(req.Field)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid Field", fmt.Sprintf("unknown rate %q", req.Field))
		return
	}
	v, err := h.P.SetGlobalRate(r.Context(), id, field, req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) setOptionGst(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	option, ok := optionParam(w, r)
	if !ok {
		return
	}
	var req fieldRequest
	if !decodeBody(w, r, &req) {
		return
	}
	field, ok := domain.ParseGstField(req.Field)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid Field", fmt.Sprintf("unknown tax field %q", req.Field))
		return
	}
	v, err := h.P.SetOptionGst(r.Context(), id, option, field, req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) setClientPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	option, ok := optionParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Value any `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	v, err := h.P.SetClientPrice(r.Context(), id, option, req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) getQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	var option *int
	if s := r.URL.Query().Get("option"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeProblem(w, http.StatusBadRequest, "Invalid Option", "option must be a positive integer")
			return
		}
		option = &n
	}
	q, err := h.P.Quotation(r.Context(), id, option)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, q)
}

func (h *Handlers) listProposals(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	ps, err := h.P.Proposals(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ps == nil {
		ps = []domain.Proposal{}
	}
	writeCached(w, r, ps)
}

func (h *Handlers) exportPricing(w http.ResponseWriter, r *http.Request) {
	id, ok := packageID(w, r)
	if !ok {
		return
	}
	pkg, options, err := h.P.Export(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := xlsx.WritePricing(&buf, pkg, options); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="pricing-%d.xlsx"`, id))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("failed to write workbook")
	}
}
