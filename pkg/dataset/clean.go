package dataset

import (
	"fmt"

	"github.com/mchmarny/ordermix/pkg/fault"
	"github.com/mchmarny/ordermix/pkg/schema"
)

const (
	minHourCode = 0
	maxHourCode = 23
)

var dayNames = map[int]string{
	1: "Mon",
	2: "Tue",
	3: "Wed",
	4: "Thu",
	5: "Fri",
	6: "Sat",
	7: "Sun",
}

// OrderRecord is a cleaned order: identifiers dropped, weekday and hour
// turned into their readable labels.
type OrderRecord struct {
	TotalItems int
	Discount   float64
	Weekday    string
	Hour       string
	// Shares are category percentages in schema.ResponseColumns order.
	Shares []float64
}

// Clean drops the identifier columns and maps the weekday and hour codes to
// labels. Codes without a label are rejected.
func Clean(rows []*RawRow) ([]*OrderRecord, error) {
	out := make([]*OrderRecord, 0, len(rows))
	for i, r := range rows {
		day, err := WeekdayName(r.WeekdayCode)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		hour, err := HourLabel(r.HourCode)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		out = append(out, &OrderRecord{
			TotalItems: r.TotalItems,
			Discount:   r.Discount,
			Weekday:    day,
			Hour:       hour,
			Shares:     r.Shares,
		})
	}
	return out, nil
}

// WeekdayName maps a 1-7 day code to its three letter name.
func WeekdayName(code int) (string, error) {
	name, ok := dayNames[code]
	if !ok {
		return "", fault.Newf(fault.KindEnum, colWeekday, "unmapped weekday code %d", code)
	}
	return name, nil
}

// HourLabel formats an hour code as a zero padded label, e.g. 7 -> "07h".
func HourLabel(code int) (string, error) {
	if code < minHourCode || code > maxHourCode {
		return "", fault.Newf(fault.KindRange, colHour, "hour code %d outside %d-%d", code, minHourCode, maxHourCode)
	}
	label := fmt.Sprintf("%02dh", code)
	if !schema.IsHour(label) {
		return "", fault.Newf(fault.KindEnum, colHour, "unknown hour label %q", label)
	}
	return label, nil
}
