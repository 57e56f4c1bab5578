// Package seed names the seed types chosen by the actuator's classifier.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Classes is the number of seed types the classifier can emit (0..Classes-1).
const Classes = 22

type Catalog struct {
	names map[int]string
}

// Default names every seed type by its number.
func Default() *Catalog { return &Catalog{names: map[int]string{}} }

// Load reads a .csv or .xlsx with a seed type column and a name column.
// An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSX(path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("seed catalog %s: unsupported format", path)
	}
	if err != nil {
		return nil, fmt.Errorf("seed catalog %s: %w", path, err)
	}
	return parse(rows)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
}

func readXLSX(path string) ([][]string, error) {
	x, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer x.Close()
	sheets := x.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return x.GetRows(sheets[0])
}

func norm(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF") // BOM
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

func parse(rows [][]string) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, errors.New("empty seed catalog")
	}
	head := map[string]int{}
	for i, h := range rows[0] {
		head[norm(h)] = i
	}
	findAny := func(keys ...string) int {
		for _, k := range keys {
			if idx, ok := head[norm(k)]; ok {
				return idx
			}
		}
		return -1
	}
	cType := findAny("seed_type", "type", "id", "class", "sowed")
	cName := findAny("name", "crop", "seed", "label")
	if cType == -1 || cName == -1 {
		return nil, fmt.Errorf("seed catalog missing columns, found %v, need seed_type and name", rows[0])
	}

	c := Default()
	for _, rec := range rows[1:] {
		get := func(idx int) string {
			if idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		id, err := strconv.Atoi(get(cType))
		if err != nil || id < 0 || id >= Classes {
			continue
		}
		if name := get(cName); name != "" {
			c.names[id] = name
		}
	}
	return c, nil
}

func (c *Catalog) Name(seedType int) string {
	if n, ok := c.names[seedType]; ok {
		return n
	}
	return "seed-" + strconv.Itoa(seedType)
}

// NameOf returns "" for an unsowed cell.
func (c *Catalog) NameOf(sowed *int) string {
	if sowed == nil {
		return ""
	}
	return c.Name(*sowed)
}
