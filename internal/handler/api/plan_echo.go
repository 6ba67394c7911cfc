package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	models "TradePlan/internal/domain/models"
	"TradePlan/internal/service/ratelimit"
	"TradePlan/internal/usecase"
	"TradePlan/internal/validation"
	xhttp "TradePlan/pkg/http"
	xlogger "TradePlan/pkg/logger"
	"TradePlan/pkg/util"
)

// schemaNames maps the public schema type to its schema document.
var schemaNames = map[string]string{
	"DP":         usecase.SchemaDP,
	"MANCINI":    usecase.SchemaMancini,
	"TRADE_IDEA": "trade-idea",
}

// PlanEchoHandler exposes the plan pipeline over Echo.
type PlanEchoHandler struct {
	logger   *xlogger.Logger
	builder  *usecase.PlanBuilder
	repairer *validation.Repairer
	types    *validation.TypeValidator
	domain   *validation.DomainValidator
	rl       *ratelimit.Limiter
}

func NewPlanEchoHandler(logger *xlogger.Logger, builder *usecase.PlanBuilder, repairer *validation.Repairer, types *validation.TypeValidator, domain *validation.DomainValidator) *PlanEchoHandler {
	return &PlanEchoHandler{
		logger:   logger,
		builder:  builder,
		repairer: repairer,
		types:    types,
		domain:   domain,
		rl:       ratelimit.New(),
	}
}

func (h *PlanEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.POST("/plan", h.BuildPlan)
	g.GET("/plan/:symbol", h.GetPlan)
	g.GET("/plan/:symbol/history", h.PlanHistory)
	g.POST("/validate", h.Validate)
	g.GET("/schemas/:name", h.SchemaDefinition)
}

func (h *PlanEchoHandler) BuildPlan(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":plan", 5, 2) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	req := &models.BuildPlanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	plan, err := h.builder.BuildPlan(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrNoPrice) {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.logger.Error("build plan failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, plan)
}

func (h *PlanEchoHandler) GetPlan(c echo.Context) error {
	symbol := strings.ToUpper(c.Param("symbol"))
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol required")
	}

	plan, err := h.builder.CachedPlan(c.Request().Context(), symbol)
	if err != nil {
		h.logger.Error("plan lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if plan == nil {
		return xhttp.NotFoundResponse(c, "no plan for "+symbol)
	}
	return xhttp.SuccessResponse(c, plan)
}

// PlanHistory returns recent stored runs for research and backtesting.
func (h *PlanEchoHandler) PlanHistory(c echo.Context) error {
	symbol := strings.ToUpper(c.Param("symbol"))
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol required")
	}
	days := util.ParseIntDefault(c.QueryParam("days"), 7)
	limit := util.ParseIntDefault(c.QueryParam("limit"), 10)

	plans, err := h.builder.PlanHistory(c.Request().Context(), symbol, days, limit)
	if err != nil {
		h.logger.Error("plan history failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if plans == nil {
		plans = []*models.TradePlan{}
	}
	return xhttp.SuccessResponse(c, plans)
}

// Validate checks one analysis document. With repair set the structural
// pipeline runs with fixes and default injection; without it the document
// gets the plain type check plus domain rules.
func (h *PlanEchoHandler) Validate(c echo.Context) error {
	req := &models.ValidateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	schemaType := strings.ToUpper(req.SchemaType)
	schemaName, ok := schemaNames[schemaType]
	if !ok {
		return xhttp.BadRequestResponse(c, "unknown schema type: "+req.SchemaType)
	}

	if req.Repair {
		result := h.repairer.ValidateAndFix(c.Request().Context(), req.Data, schemaName)
		return xhttp.SuccessResponse(c, result)
	}

	data, err := validation.Fix(req.Data)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	type validateResponse struct {
		Structural models.ValidationResult `json:"structural"`
		TypeCheck  models.TypeCheckResult  `json:"type_check"`
		Domain     *models.DomainReport    `json:"domain,omitempty"`
	}
	resp := validateResponse{
		Structural: h.repairer.ValidateDocument(data, schemaName),
		TypeCheck:  h.types.Validate(data, schemaType),
	}
	if schemaType == "DP" && h.domain != nil {
		report := h.domain.ValidateTradeData(data, schemaType)
		resp.Domain = &report
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *PlanEchoHandler) SchemaDefinition(c echo.Context) error {
	name := c.Param("name")
	if mapped, ok := schemaNames[strings.ToUpper(name)]; ok {
		name = mapped
	}

	def, err := h.repairer.Definition(name)
	if err != nil {
		return xhttp.NotFoundResponse(c, err.Error())
	}
	return xhttp.SuccessResponse(c, def)
}

func (h *PlanEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
