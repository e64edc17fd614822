package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/internal/reports/service"
	"github.com/quoteflow/quoteflow-backend/pkg/config"
	"github.com/quoteflow/quoteflow-backend/pkg/errors"
	"github.com/quoteflow/quoteflow-backend/pkg/httputil"
	"github.com/quoteflow/quoteflow-backend/pkg/logger"
)

const defaultListLimit = 20

// Handler handles HTTP requests for report parsing
type Handler struct {
	service           *service.Service
	logger            *logger.Logger
	maxUploadSize     int64
	allowedExtensions map[string]bool
	acceptedList      string
}

// NewHandler creates a new report handler
func NewHandler(svc *service.Service, cfg config.ParserConfig, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}
	accepted := make([]string, 0, len(allowed))
	for ext := range allowed {
		accepted = append(accepted, ext)
	}
	sort.Strings(accepted)
	return &Handler{
		service:           svc,
		logger:            log,
		maxUploadSize:     cfg.MaxUploadSize,
		allowedExtensions: allowed,
		acceptedList:      strings.Join(accepted, ", "),
	}
}

// Register mounts the report routes on r
func (h *Handler) Register(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/dash", h.ParseDASH)
		r.Post("/mvr", h.ParseMVR)
		r.Get("/{id}", h.Get)
	})
}

type uploadMeta struct {
	FileName string `validate:"required,max=255"`
}

type reportIDParam struct {
	ID string `validate:"required,uuid"`
}

type listQuery struct {
	LicenseNumber string `validate:"required,max=64"`
	Limit         int    `validate:"min=1,max=100"`
}

// ParseDASH handles POST /reports/dash
func (h *Handler) ParseDASH(w http.ResponseWriter, r *http.Request) {
	h.parse(w, r, domain.ReportTypeDASH)
}

// ParseMVR handles POST /reports/mvr
func (h *Handler) ParseMVR(w http.ResponseWriter, r *http.Request) {
	h.parse(w, r, domain.ReportTypeMVR)
}

// parse accepts a multipart form with the report under "file" and responds
// with the extracted record. The report ID is returned in X-Report-ID.
func (h *Handler) parse(w http.ResponseWriter, r *http.Request, reportType domain.ReportType) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		httputil.Error(w, errors.BadRequest("file too large or invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.Error(w, errors.BadRequest("missing file in request"))
		return
	}
	defer file.Close()

	meta := uploadMeta{FileName: filepath.Base(header.Filename)}
	if err := httputil.Validate(meta); err != nil {
		httputil.Error(w, err)
		return
	}

	ext := strings.ToLower(filepath.Ext(meta.FileName))
	if !h.allowedExtensions[ext] {
		httputil.Error(w, errors.UnsupportedFile(fmt.Sprintf("file type %q is not accepted", ext)).
			WithDetails(map[string]string{"file": "must be one of: " + h.acceptedList}))
		return
	}

	// Read file into memory (never to disk); the service zeroes it
	data, err := io.ReadAll(file)
	if err != nil {
		httputil.Error(w, errors.Wrap(err, "BAD_REQUEST", "failed to read uploaded file", http.StatusBadRequest))
		return
	}

	result, err := h.service.Parse(r.Context(), data, reportType, meta.FileName)
	if err != nil {
		h.logger.WithRequestID(httputil.GetRequestID(r.Context())).
			Warn().Err(err).
			Str("report_type", string(reportType)).
			Str("file_name", meta.FileName).
			Msg("report parse failed")
		httputil.Error(w, err)
		return
	}

	w.Header().Set("X-Report-ID", result.ReportID)
	httputil.JSON(w, http.StatusOK, result.Record)
}

// Get handles GET /reports/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	param := reportIDParam{ID: chi.URLParam(r, "id")}
	if err := httputil.Validate(param); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.Get(r.Context(), param.ID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// List handles GET /reports?license_number=X&limit=N
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := listQuery{
		LicenseNumber: strings.TrimSpace(r.URL.Query().Get("license_number")),
		Limit:         defaultListLimit,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httputil.Error(w, errors.BadRequest("limit must be an integer"))
			return
		}
		q.Limit = limit
	}
	if err := httputil.Validate(q); err != nil {
		httputil.Error(w, err)
		return
	}

	reports, err := h.service.ListByLicenseNumber(r.Context(), q.LicenseNumber, q.Limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, reports, &httputil.Meta{
		Count: len(reports),
		Limit: q.Limit,
	})
}
