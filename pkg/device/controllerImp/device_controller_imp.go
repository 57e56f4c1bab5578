package controllerImp

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"seedbot/pkg/apperr"
	"seedbot/pkg/device/repository"
)

type DeviceCtrl struct{ repo repository.DeviceRepository }

func New(repo repository.DeviceRepository) *DeviceCtrl { return &DeviceCtrl{repo} }

func (h *DeviceCtrl) List(c echo.Context) error {
	out, err := h.repo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apperr.Body(err))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DeviceCtrl) Get(c echo.Context) error {
	d, err := h.repo.FindByName(c.Request().Context(), c.Param("name"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Device not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, apperr.Body(err))
	}
	return c.JSON(http.StatusOK, d)
}
