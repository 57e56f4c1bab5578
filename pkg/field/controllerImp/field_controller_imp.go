package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"seedbot/pkg/apperr"
	"seedbot/pkg/field/service"
)

type FieldCtrl struct{ svc service.FieldService }

func New(svc service.FieldService) *FieldCtrl { return &FieldCtrl{svc} }

func (h *FieldCtrl) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid field_id parameter"})
	}
	rep, err := h.svc.GetField(c.Request().Context(), uint(id))
	if err != nil {
		return c.JSON(apperr.Status(err), apperr.Body(err))
	}
	return c.JSON(http.StatusOK, rep)
}
