package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gigflow/marketplace/internal/api/middleware"
)

// requesterID returns the authenticated user id injected by the Auth
// middleware. An empty id means the route was mounted without it.
func requesterID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.ContextUserID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// bindAndValidate decodes the JSON body into req and runs the struct rules.
// Undecodable bodies are reported as 400, missing fields as 422.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
