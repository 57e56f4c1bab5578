package controller

import "github.com/labstack/echo/v4"

type SowingController interface {
	Start(c echo.Context) error
	Toggle(c echo.Context) error
	Stop(c echo.Context) error
	Progress(c echo.Context) error
	Status(c echo.Context) error
}
