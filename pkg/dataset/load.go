// Package dataset reads the raw order export and prepares it for training:
// cleaning, encoding against the shared feature schema, and splitting.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mchmarny/ordermix/pkg/fault"
	"github.com/mchmarny/ordermix/pkg/feature"
	"github.com/mchmarny/ordermix/pkg/schema"
)

const (
	colCustomer   = "customer"
	colOrder      = "order"
	colTotalItems = "total_items"
	colDiscount   = "discount%"
	colWeekday    = "weekday"
	colHour       = "hour"
)

// RawRow is one line of the order export before cleaning.
type RawRow struct {
	Customer    string
	Order       string
	TotalItems  int
	Discount    float64
	WeekdayCode int
	HourCode    int
	// Shares are category percentages in schema.ResponseColumns order.
	Shares []float64
}

// Load parses the order export. Columns are matched by name, so their
// order in the file does not matter.
func Load(r io.Reader) ([]*RawRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fault.New(fault.KindSchema, "", "empty order data")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	rows := make([]*RawRow, 0)
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		row, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// columns locates the fields of the export. Share columns are keyed by
// category name with the percent suffix stripped.
type columns struct {
	fields map[string]int
	shares []int
}

func indexColumns(header []string) (*columns, error) {
	fields := make(map[string]int, len(header))
	byCategory := make(map[string]int)
	for i, h := range header {
		h = strings.TrimSpace(h)
		fields[h] = i
		if strings.HasSuffix(h, schema.ShareSuffix) && h != colDiscount {
			byCategory[feature.ShareColumn(h)] = i
		}
	}

	for _, c := range []string{colCustomer, colOrder, colTotalItems, colDiscount, colWeekday, colHour} {
		if _, ok := fields[c]; !ok {
			return nil, fault.Newf(fault.KindSchema, c, "missing column")
		}
	}

	cols := &columns{fields: fields}
	for _, c := range schema.ResponseColumns() {
		i, ok := byCategory[c]
		if !ok {
			return nil, fault.Newf(fault.KindSchema, c+schema.ShareSuffix, "missing column")
		}
		cols.shares = append(cols.shares, i)
	}
	return cols, nil
}

func parseRow(rec []string, cols *columns) (*RawRow, error) {
	get := func(col string) string {
		return strings.TrimSpace(rec[cols.fields[col]])
	}

	var err error
	row := &RawRow{
		Customer: get(colCustomer),
		Order:    get(colOrder),
		Shares:   make([]float64, len(cols.shares)),
	}

	if row.TotalItems, err = strconv.Atoi(get(colTotalItems)); err != nil {
		return nil, fault.Newf(fault.KindType, colTotalItems, "not an integer: %q", get(colTotalItems))
	}
	if row.Discount, err = strconv.ParseFloat(get(colDiscount), 64); err != nil {
		return nil, fault.Newf(fault.KindType, colDiscount, "not a number: %q", get(colDiscount))
	}
	if row.WeekdayCode, err = strconv.Atoi(get(colWeekday)); err != nil {
		return nil, fault.Newf(fault.KindType, colWeekday, "not an integer: %q", get(colWeekday))
	}
	if row.HourCode, err = strconv.Atoi(get(colHour)); err != nil {
		return nil, fault.Newf(fault.KindType, colHour, "not an integer: %q", get(colHour))
	}

	for i, j := range cols.shares {
		v := strings.TrimSpace(rec[j])
		if row.Shares[i], err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fault.Newf(fault.KindType, schema.ResponseColumns()[i]+schema.ShareSuffix, "not a number: %q", v)
		}
	}

	return row, nil
}
