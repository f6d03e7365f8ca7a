package adminapi

import (
	"github.com/labstack/echo/v4"
)

func (ws *WebServer) registerStockRoutes() {
	ws.root.GET("/warehouse/stock", ws.listStock)
	ws.root.GET("/warehouse/stock/:id", ws.getStock)
}

func (ws *WebServer) listStock(c echo.Context) error {
	page, pageSize := parsePagination(c)
	rows, total, err := ws.app.StockRepo().List(c.Request().Context(), page, pageSize)
	if err != nil {
		return failDomain(c, err)
	}
	return paged(c, rows, total, page, pageSize)
}

func (ws *WebServer) getStock(c echo.Context) error {
	productID, err := parseID(c, "id")
	if err != nil {
		return failDomain(c, err)
	}
	rec, err := ws.app.StockRepo().GetByProduct(c.Request().Context(), productID)
	if err != nil {
		return failDomain(c, err)
	}
	if rec == nil {
		return ok(c, map[string]interface{}{"product_id": productID, "quantity": 0})
	}
	return ok(c, rec)
}
