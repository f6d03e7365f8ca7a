package adminapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type setStatusPayload struct {
	Status string `json:"status" form:"status"`
}

func (ws *WebServer) registerOrderRoutes() {
	ws.root.PUT("/orders/:id/status", ws.setOrderStatus)
	ws.root.DELETE("/orders/:id", ws.deleteOrder)
	ws.root.GET("/orders/:id", ws.getOrderDetail)
}

func (ws *WebServer) setOrderStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return failDomain(c, err)
	}
	var payload setStatusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", err.Error())
	}
	if err := ws.app.OrderService().SetStatus(c.Request().Context(), id, payload.Status); err != nil {
		return failDomain(c, err)
	}
	return ok(c, map[string]interface{}{"id": id, "status": payload.Status})
}

func (ws *WebServer) deleteOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return failDomain(c, err)
	}
	if err := ws.app.OrderService().Delete(c.Request().Context(), id); err != nil {
		return failDomain(c, err)
	}
	return ok(c, map[string]interface{}{"id": id})
}

func (ws *WebServer) getOrderDetail(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return failDomain(c, err)
	}
	requesterID, err := strconv.ParseInt(c.QueryParam("requester"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "requester is required", nil)
	}
	detail, err := ws.app.OrderService().GetDetail(c.Request().Context(), id, requesterID)
	if err != nil {
		return failDomain(c, err)
	}
	return ok(c, detail)
}
