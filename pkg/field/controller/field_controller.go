package controller

import "github.com/labstack/echo/v4"

type FieldController interface {
	Get(c echo.Context) error
}
