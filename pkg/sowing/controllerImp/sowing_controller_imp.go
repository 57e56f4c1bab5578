package controllerImp

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"seedbot/entities"
	"seedbot/pkg/apperr"
	"seedbot/pkg/sowing/service"
)

type SowingCtrl struct{ svc service.SowingService }

func New(svc service.SowingService) *SowingCtrl { return &SowingCtrl{svc} }

type startReq struct {
	Length     *float64 `json:"length"`
	Width      *float64 `json:"width"`
	SquareSize *float64 `json:"square_size"`
}

type message struct {
	Message string `json:"message"`
	FieldID *uint  `json:"field_id,omitempty"`
}

// lifecycleError answers lifecycle state conflicts with 400; the
// progress query keeps 409 for them.
func lifecycleError(c echo.Context, err error) error {
	status := apperr.Status(err)
	if apperr.KindOf(err) == apperr.KindStateConflict {
		status = http.StatusBadRequest
	}
	return c.JSON(status, apperr.Body(err))
}

func (h *SowingCtrl) Start(c echo.Context) error {
	// An unreadable body is an empty spec: the session check still comes first.
	var spec service.FieldSpec
	var req startReq
	if err := c.Bind(&req); err == nil {
		spec = service.FieldSpec{Length: req.Length, Width: req.Width, SquareSize: req.SquareSize}
	}
	id, err := h.svc.Start(c.Request().Context(), spec)
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(http.StatusOK, message{Message: "Sowing initialized", FieldID: &id})
}

func (h *SowingCtrl) Toggle(c echo.Context) error {
	st, err := h.svc.Toggle(c.Request().Context())
	if err != nil {
		return lifecycleError(c, err)
	}
	msg := "Sowing resumed"
	switch st {
	case entities.StatusPaused:
		msg = "Sowing paused"
	case entities.StatusComplete:
		msg = "Sowing complete"
	}
	return c.JSON(http.StatusOK, message{Message: msg})
}

func (h *SowingCtrl) Stop(c echo.Context) error {
	if err := h.svc.Stop(c.Request().Context()); err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(http.StatusOK, message{Message: "Sowing stopped"})
}

func (h *SowingCtrl) Progress(c echo.Context) error {
	p, err := h.svc.QueryProgress(c.Request().Context(), c.QueryParam("field_id"))
	if errors.Is(err, service.ErrNotInProgress) {
		return c.JSON(http.StatusConflict, p)
	}
	if err != nil {
		return c.JSON(apperr.Status(err), apperr.Body(err))
	}
	return c.JSON(http.StatusOK, p)
}

func (h *SowingCtrl) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Snapshot())
}
