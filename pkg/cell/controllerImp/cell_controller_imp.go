package controllerImp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"seedbot/entities"
	"seedbot/pkg/apperr"
	cellRepo "seedbot/pkg/cell/repository"
	fieldRepo "seedbot/pkg/field/repository"
	"seedbot/pkg/seed"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type CellCtrl struct {
	cells  cellRepo.CellRepository
	fields fieldRepo.FieldRepository
	seeds  *seed.Catalog
}

func New(cells cellRepo.CellRepository, fields fieldRepo.FieldRepository, seeds *seed.Catalog) *CellCtrl {
	if seeds == nil {
		seeds = seed.Default()
	}
	return &CellCtrl{cells: cells, fields: fields, seeds: seeds}
}

type cellView struct {
	entities.Cell
	SeedName string `json:"seed_name,omitempty"`
}

func (h *CellCtrl) load(c echo.Context) (uint, []entities.Cell, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		return 0, nil, apperr.Validation("cells", "Invalid field_id parameter")
	}
	ctx := c.Request().Context()
	if _, err := h.fields.FindByID(ctx, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil, apperr.NotFound("cells", "Field not found")
		}
		return 0, nil, err
	}
	cells, err := h.cells.ListByField(ctx, uint(id))
	if err != nil {
		return 0, nil, err
	}
	return uint(id), cells, nil
}

func (h *CellCtrl) List(c echo.Context) error {
	_, cells, err := h.load(c)
	if err != nil {
		return c.JSON(apperr.Status(err), apperr.Body(err))
	}
	out := make([]cellView, 0, len(cells))
	for _, cell := range cells {
		out = append(out, cellView{Cell: cell, SeedName: h.seeds.NameOf(cell.Sowed)})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CellCtrl) Export(c echo.Context) error {
	id, cells, err := h.load(c)
	if err != nil {
		return c.JSON(apperr.Status(err), apperr.Body(err))
	}
	x := excelize.NewFile()
	defer x.Close()
	sheet := x.GetSheetName(0)
	header := []any{"row", "col", "n", "p", "k", "ph", "moisture", "temperature", "seed_type", "seed_name", "updated_at"}
	if err := x.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, cell := range cells {
		row := []any{cell.Row, cell.Col, val(cell.N), val(cell.P), val(cell.K), val(cell.PH),
			val(cell.Moisture), val(cell.Temperature), intVal(cell.Sowed), h.seeds.NameOf(cell.Sowed),
			cell.UpdatedAt.UTC().Format("2006-01-02 15:04:05")}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := x.SetSheetRow(sheet, addr, &row); err != nil {
			return err
		}
	}
	buf, err := x.WriteToBuffer()
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="field-%d-cells.xlsx"`, id))
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

func val(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intVal(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
