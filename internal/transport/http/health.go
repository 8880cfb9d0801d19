package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func HandleHealth() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}
