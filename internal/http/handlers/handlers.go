package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/CouSixz/Ciborg/internal/db"
	"github.com/CouSixz/Ciborg/internal/export"
	"github.com/CouSixz/Ciborg/internal/ingest"
	"github.com/CouSixz/Ciborg/internal/metrics"
	"github.com/CouSixz/Ciborg/internal/models"
	"github.com/CouSixz/Ciborg/internal/service"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type Handler struct {
	Store      db.Store
	Processing *service.ProcessingService
	Validator  *validator.Validate
	Logger     zerolog.Logger
	DateLayout string
	TopN       int
}

type TableSummary struct {
	Parsed   int `json:"parsed"`
	Inserted int `json:"inserted"`
	Errors   int `json:"errors"`
}

type ImportSummary struct {
	Orders TableSummary `json:"orders"`
	Team   TableSummary `json:"team"`
	Errors []string     `json:"errors"`
}

type DistributeRequest struct {
	Tab       string   `json:"tab" validate:"max=16"`
	Suppliers []string `json:"suppliers" validate:"dive,required"`
	Bands     []string `json:"bands" validate:"dive,required"`
	Seed      string   `json:"seed" validate:"max=128"`
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Import dataset
// @Description Upload the service order export and the team roster. Replaces the stored dataset.
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param orders formData file true "orders .csv or .xlsx"
// @Param team formData file true "team .csv or .xlsx"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	ordersFile, err := c.FormFile("orders")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "orders file required", nil)
		return
	}
	teamFile, err := c.FormFile("team")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "team file required", nil)
		return
	}
	if !ingest.SupportedExt(ordersFile.Filename) || !ingest.SupportedExt(teamFile.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "files must be .csv or .xlsx", nil)
		return
	}

	summary := ImportSummary{Errors: []string{}}

	orders, errs := h.parseOrders(ordersFile)
	summary.Orders.Parsed = len(orders)
	summary.Orders.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)
	metrics.IngestErrorsTotal.WithLabelValues("orders").Add(float64(len(errs)))

	agents, errs := parseTeam(teamFile)
	summary.Team.Parsed = len(agents)
	summary.Team.Errors = len(errs)
	summary.Errors = append(summary.Errors, errs...)
	metrics.IngestErrorsTotal.WithLabelValues("team").Add(float64(len(errs)))

	if len(summary.Errors) > 0 {
		writeError(c, http.StatusBadRequest, "PARSE_ERROR", "File validation errors", summary.Errors)
		return
	}

	nOrders, nAgents, err := h.Store.ReplaceDataset(c.Request.Context(), orders, agents)
	if err != nil {
		h.Logger.Error().Err(err).Msg("dataset import failed")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to store dataset", err.Error())
		return
	}
	summary.Orders.Inserted = int(nOrders)
	summary.Team.Inserted = int(nAgents)
	metrics.IngestRecordsTotal.WithLabelValues("orders").Add(float64(nOrders))
	metrics.IngestRecordsTotal.WithLabelValues("team").Add(float64(nAgents))

	h.Logger.Info().Int64("orders", nOrders).Int64("agents", nAgents).Msg("dataset imported")
	c.JSON(http.StatusOK, summary)
}

// @Summary List orders
// @Tags orders
// @Produce json
// @Param tab query string false "RAC, GTF or ZKM"
// @Param supplier query []string false "supplier name" collectionFormat(multi)
// @Param band query []string false "value band label" collectionFormat(multi)
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} map[string]any
// @Router /api/orders [get]
func (h *Handler) OrdersList(c *gin.Context) {
	tab, ok := service.ParseTab(c.Query("tab"))
	if !ok {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown tab", c.Query("tab"))
		return
	}
	filter := service.OrderFilter{Tab: tab, Suppliers: trimAll(c.QueryArray("supplier")), Bands: trimAll(c.QueryArray("band"))}
	if bad := unknownBands(filter.Bands); len(bad) > 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown band", bad)
		return
	}
	limit, offset := pageParams(c)

	orders, err := h.Processing.LoadOrders(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list orders", err.Error())
		return
	}
	filtered := service.FilterOrders(orders, filter)
	c.JSON(http.StatusOK, gin.H{
		"items":  page(filtered, limit, offset),
		"total":  len(filtered),
		"limit":  limit,
		"offset": offset,
	})
}

// @Summary List agents
// @Tags agents
// @Produce json
// @Param band query string false "band key, e.g. 2.001 Á 5.000 or N2"
// @Param active query bool false "only active agents"
// @Success 200 {object} map[string]any
// @Router /api/agents [get]
func (h *Handler) AgentsList(c *gin.Context) {
	agents, err := h.Store.ListAgents(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list agents", err.Error())
		return
	}
	band := service.NormalizeBandKey(c.Query("band"))
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	items := make([]models.Agent, 0, len(agents))
	for _, a := range agents {
		if band != "" && a.BandKey != band {
			continue
		}
		if activeOnly && !service.IsActive(a) {
			continue
		}
		items = append(items, a)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Dashboard summary
// @Tags orders
// @Produce json
// @Param tab query string false "RAC, GTF or ZKM"
// @Success 200 {object} service.Summary
// @Router /api/summary [get]
func (h *Handler) Summary(c *gin.Context) {
	tab, ok := service.ParseTab(c.Query("tab"))
	if !ok {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown tab", c.Query("tab"))
		return
	}
	orders, err := h.Processing.LoadOrders(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load orders", err.Error())
		return
	}
	orders = service.FilterOrders(orders, service.OrderFilter{Tab: tab})
	c.JSON(http.StatusOK, service.Summarize(tab, orders, h.TopN))
}

// @Summary Distribute orders
// @Description Assigns the filtered orders of the stored dataset to active agents.
// @Tags runs
// @Accept json
// @Produce json
// @Param request body DistributeRequest false "filter and seed"
// @Success 200 {object} service.RunOutcome
// @Failure 422 {object} map[string]any
// @Router /api/distribute [post]
func (h *Handler) Distribute(c *gin.Context) {
	var req DistributeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
			return
		}
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	if bad := unknownBands(req.Bands); len(bad) > 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown band", bad)
		return
	}
	tab, ok := service.ParseTab(req.Tab)
	if !ok {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown tab", req.Tab)
		return
	}

	outcome, err := h.Processing.Run(c.Request.Context(), service.RunRequest{
		Filter: service.OrderFilter{Tab: tab, Suppliers: req.Suppliers, Bands: req.Bands},
		Seed:   req.Seed,
	})
	if err != nil {
		if errors.Is(err, service.ErrNoOrders) || errors.Is(err, service.ErrNoAgents) {
			writeError(c, http.StatusUnprocessableEntity, "PRECONDITION_FAILED", err.Error(), nil)
			return
		}
		h.Logger.Error().Err(err).Msg("distribution failed")
		writeError(c, http.StatusInternalServerError, "PROCESSING_ERROR", "Distribution failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// @Summary Latest run
// @Description Returns the most recent run record. The full outcome is included when that run is the last successful one held in memory.
// @Tags runs
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	run, err := h.Store.LatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load run", err.Error())
		return
	}
	if outcome, ok := h.Processing.Latest(); ok && outcome.Run.ID == run.ID {
		c.JSON(http.StatusOK, outcome)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

// @Summary Export latest run
// @Tags runs
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 404 {object} map[string]any
// @Router /api/runs/latest/export [get]
func (h *Handler) ExportLatest(c *gin.Context) {
	outcome, ok := h.Processing.Latest()
	if !ok {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No distribution to export", nil)
		return
	}
	f, err := export.Build(outcome.Result.Assignments, outcome.Result.Undistributed)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to build workbook", err.Error())
		return
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		writeError(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to write workbook", err.Error())
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="distribuicao_%s.xlsx"`, outcome.Run.ID))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func (h *Handler) parseOrders(file *multipart.FileHeader) ([]models.ServiceOrder, []string) {
	table, err := readUpload(file)
	if err != nil {
		return nil, []string{fmt.Sprintf("orders: %v", err)}
	}
	return ingest.ParseOrders(table, h.DateLayout)
}

func parseTeam(file *multipart.FileHeader) ([]models.Agent, []string) {
	table, err := readUpload(file)
	if err != nil {
		return nil, []string{fmt.Sprintf("team: %v", err)}
	}
	return ingest.ParseAgents(table)
}

func readUpload(file *multipart.FileHeader) (ingest.Table, error) {
	f, err := file.Open()
	if err != nil {
		return ingest.Table{}, err
	}
	defer f.Close()
	return ingest.ReadTable(file.Filename, f)
}

func unknownBands(labels []string) []string {
	var bad []string
	for _, l := range labels {
		if _, ok := service.ParseBand(l); !ok {
			bad = append(bad, l)
		}
	}
	return bad
}

func pageParams(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func page(orders []models.ServiceOrder, limit, offset int) []models.ServiceOrder {
	if offset >= len(orders) {
		return []models.ServiceOrder{}
	}
	end := offset + limit
	if end > len(orders) {
		end = len(orders)
	}
	return orders[offset:end]
}

// trimAll drops blank entries from repeated query values.
func trimAll(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
