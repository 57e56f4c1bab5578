package controllerImp

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"seedbot/pkg/sowing/service"
)

var appStart = time.Now()

// Check reports the health of one optional dependency.
type Check func(ctx context.Context) error

type HealthCtrl struct {
	db     *gorm.DB
	sowing service.SowingService
	checks map[string]Check
}

func NewHealthCtrl(db *gorm.DB, sowing service.SowingService, checks map[string]Check) *HealthCtrl {
	return &HealthCtrl{db: db, sowing: sowing, checks: checks}
}

type sub struct {
	OK  bool   `json:"ok"`
	Err string `json:"err,omitempty"`
}

func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	dbOK := true
	dbErr := ""
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil {
			dbOK = false
			dbErr = "db.DB(): " + err.Error()
		} else if err := sqlDB.PingContext(ctx); err != nil {
			dbOK = false
			dbErr = "ping: " + err.Error()
		}
	} else {
		dbOK = false
		dbErr = "gorm db is nil"
	}

	checks := map[string]any{"database": sub{OK: dbOK, Err: dbErr}}
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	// optional sinks degrade the report but not the status code
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			checks[name] = sub{Err: err.Error()}
			continue
		}
		checks[name] = sub{OK: true}
	}

	status := http.StatusOK
	if !dbOK {
		status = http.StatusServiceUnavailable
	}
	resp := map[string]any{
		"status":     map[string]any{"ok": dbOK},
		"uptime_sec": int(time.Since(appStart).Seconds()),
		"checks":     checks,
		"time":       time.Now().Format(time.RFC3339),
	}
	if h.sowing != nil {
		resp["sowing"] = h.sowing.Snapshot()
	}
	return c.JSON(status, resp)
}
