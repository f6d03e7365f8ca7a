package adminapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/retailworks/opsledger/internal/slips"
)

func (ws *WebServer) registerSlipRoutes() {
	ws.root.POST("/warehouse/receiving", ws.createReceivingSlip)
	ws.root.GET("/warehouse/receiving/:id", ws.getReceivingSlip)
	ws.root.POST("/warehouse/receiving/:id/confirm", ws.confirmReceivingSlip)
	ws.root.DELETE("/warehouse/receiving/:id", ws.deleteReceivingSlip)

	ws.root.POST("/warehouse/dispatch", ws.createDispatchSlip)
	ws.root.GET("/warehouse/dispatch/:id", ws.getDispatchSlip)
	ws.root.POST("/warehouse/dispatch/:id/confirm", ws.confirmDispatchSlip)
	ws.root.DELETE("/warehouse/dispatch/:id", ws.deleteDispatchSlip)
	ws.root.GET("/warehouse/dispatch/export", ws.exportDispatchSlips)
}

func (ws *WebServer) createReceivingSlip(c echo.Context) error {
	var in slips.CreateReceivingInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse slip", err.Error())
	}
	slip, err := ws.app.ReceivingService().Create(c.Request().Context(), in)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, slip)
}

func (ws *WebServer) getReceivingSlip(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return failDomain(c, err)
	}
	slip, err := ws.app.ReceivingService().Get(c.Request().Context(), id)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, slip)
}

func (ws *WebServer) confirmReceivingSlip(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return failDomain(c, err)
	}
	result, err := ws.app.ReceivingService().Confirm(c.Request().Context(), id)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, result)
}

func (ws *WebServer) deleteReceivingSlip(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return failDomain(c, err)
	}
	if err := ws.app.ReceivingService().Delete(c.Request().Context(), id); err != nil {
		return failDomain(c, err)
	}
	return ok(c, map[string]interface{}{"id": id})
}

func (ws *WebServer) createDispatchSlip(c echo.Context) error {
	var in slips.CreateDispatchInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse slip", err.Error())
	}
	result, err := ws.app.DispatchService().Create(c.Request().Context(), in)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, result)
}

func (ws *WebServer) getDispatchSlip(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return failDomain(c, err)
	}
	slip, err := ws.app.DispatchService().Get(c.Request().Context(), id)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, slip)
}

func (ws *WebServer) confirmDispatchSlip(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return failDomain(c, err)
	}
	result, err := ws.app.DispatchService().Confirm(c.Request().Context(), id)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, result)
}

func (ws *WebServer) deleteDispatchSlip(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return failDomain(c, err)
	}
	if err := ws.app.DispatchService().Delete(c.Request().Context(), id); err != nil {
		return failDomain(c, err)
	}
	return ok(c, map[string]interface{}{"id": id})
}

func (ws *WebServer) exportDispatchSlips(c echo.Context) error {
	var ids []int64
	for _, raw := range strings.Split(c.QueryParam("ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid slip id "+raw, nil)
		}
		ids = append(ids, id)
	}
	includeItems := c.QueryParam("items") == "true"

	data, err := ws.app.DispatchService().ExportDispatchSlips(c.Request().Context(), ids, includeItems)
	if err != nil {
		return failDomain(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="dispatch_slips.xlsx"`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
