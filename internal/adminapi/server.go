package adminapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/retailworks/opsledger/internal/app"
	"github.com/retailworks/opsledger/internal/domain"
)

// WebServer exposes the fulfilment operations over HTTP. Authentication is
// handled upstream; this surface is the collaborator contract only.
type WebServer struct {
	root *echo.Echo
	app  app.AppContext
}

func NewWebServer(appCtx app.AppContext) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	ws := &WebServer{root: e, app: appCtx}
	ws.registerStockRoutes()
	ws.registerSlipRoutes()
	ws.registerOrderRoutes()
	return ws
}

func (ws *WebServer) Start() error {
	cfg := ws.app.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.L().Info("admin api listening", zap.String("addr", addr))
	return ws.root.Start(addr)
}

// response helpers

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": 0,
		"data": data,
	})
}

func fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	return c.JSON(status, map[string]interface{}{
		"code":   code,
		"msg":    msg,
		"detail": detail,
	})
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code":      0,
		"data":      rows,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// failDomain maps the workflow error taxonomy onto HTTP statuses so the UI
// can distinguish missing, wrong-state and rule-blocked rejections.
func failDomain(c echo.Context, err error) error {
	switch {
	case domain.IsNotFound(err):
		return fail(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case domain.IsValidation(err):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case domain.IsInvalidState(err):
		return fail(c, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
	case domain.IsBusinessRule(err):
		return fail(c, http.StatusUnprocessableEntity, "RULE_VIOLATION", err.Error(), nil)
	default:
		zap.L().Error("internal error", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error", nil)
	}
}

func parseID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, domain.ErrValidation("invalid %s", name)
	}
	return id, nil
}

func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("perPage")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}
