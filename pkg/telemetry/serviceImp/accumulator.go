package serviceImp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"seedbot/entities"
	"seedbot/pkg/telemetry/service"
)

var errInvalidReport = errors.New("invalid cell report")

type report map[string]json.RawMessage

func (r report) complete() bool {
	for _, k := range service.RequiredKeys {
		if _, ok := r[k]; !ok {
			return false
		}
	}
	return true
}

// accumulator holds in-flight cell reports. Callers hold mu across
// merge, completeness check and persistence.
type accumulator struct {
	mu        sync.Mutex
	partition service.Partition
	reports   map[string]report
}

func newAccumulator(p service.Partition) *accumulator {
	return &accumulator{partition: p, reports: make(map[string]report)}
}

func (a *accumulator) key(source string) string {
	if a.partition == service.PartitionSource {
		return source
	}
	return ""
}

// merge overwrites colliding keys and returns the merged report.
func (a *accumulator) merge(source string, fragment report) report {
	k := a.key(source)
	r, ok := a.reports[k]
	if !ok {
		r = make(report, len(service.RequiredKeys))
		a.reports[k] = r
	}
	for key, v := range fragment {
		r[key] = v
	}
	return r
}

func (a *accumulator) clear(source string) { delete(a.reports, a.key(source)) }

// pending returns the keys currently held for source.
func (a *accumulator) pending(source string) []string {
	r := a.reports[a.key(source)]
	out := make([]string, 0, len(r))
	for _, k := range service.RequiredKeys {
		if _, ok := r[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// toCell converts a complete report. Measurements and seed_type may be null;
// field_id, row and col must be non-negative integers.
func (r report) toCell() (*entities.Cell, error) {
	fieldID, err := r.index("field_id")
	if err != nil {
		return nil, err
	}
	row, err := r.index("row")
	if err != nil {
		return nil, err
	}
	col, err := r.index("col")
	if err != nil {
		return nil, err
	}
	npk, err := r.npk()
	if err != nil {
		return nil, err
	}
	c := &entities.Cell{FieldID: uint(fieldID), Row: row, Col: col, N: npk.N, P: npk.P, K: npk.K}
	if c.PH, err = r.optFloat("ph"); err != nil {
		return nil, err
	}
	if c.Moisture, err = r.optFloat("moisture"); err != nil {
		return nil, err
	}
	if c.Temperature, err = r.optFloat("temp"); err != nil {
		return nil, err
	}
	seed, err := r.optFloat("seed_type")
	if err != nil {
		return nil, err
	}
	if seed != nil {
		if *seed != math.Trunc(*seed) {
			return nil, fmt.Errorf("%w: seed_type %v is not an integer", errInvalidReport, *seed)
		}
		v := int(*seed)
		c.Sowed = &v
	}
	return c, nil
}

func isNull(v json.RawMessage) bool { return bytes.Equal(bytes.TrimSpace(v), []byte("null")) }

func (r report) optFloat(key string) (*float64, error) {
	v := r[key]
	if isNull(v) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return nil, fmt.Errorf("%w: %s is %s", errInvalidReport, key, v)
	}
	return &f, nil
}

func (r report) index(key string) (int, error) {
	f, err := r.optFloat(key)
	if err != nil {
		return 0, err
	}
	if f == nil || *f < 0 || *f != math.Trunc(*f) {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errInvalidReport, key)
	}
	return int(*f), nil
}

func (r report) npk() (entities.NPK, error) {
	var out entities.NPK
	v := r["npk"]
	if isNull(v) {
		return out, nil
	}
	if err := json.Unmarshal(v, &out); err != nil {
		return out, fmt.Errorf("%w: npk is %s", errInvalidReport, v)
	}
	return out, nil
}
