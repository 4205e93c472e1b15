// Package scoring validates a single order input, runs it through the
// shared feature encoder and the fitted classifier, and formats the
// category share prediction.
package scoring

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/mchmarny/ordermix/pkg/fault"
	"github.com/mchmarny/ordermix/pkg/schema"
	"github.com/tidwall/gjson"
)

const (
	minDiscount = 0
	maxDiscount = 100
)

// Input is a validated scoring request.
type Input struct {
	TotalItems int     `json:"total_items" yaml:"totalItems"`
	Discount   float64 `json:"discount%" yaml:"discount"`
	Weekday    string  `json:"weekday" yaml:"weekday"`
	Hour       string  `json:"hour" yaml:"hour"`
}

// ReadInput reads the raw input document from path.
func ReadInput(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input %s: %w", path, err)
	}
	return b, nil
}

// Validate checks the raw input document and returns the typed input. The
// checks run in a fixed order and stop at the first violation:
// key set and order, total_items type, discount% range, weekday, hour.
func Validate(raw []byte) (*Input, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fault.New(fault.KindSchema, "", "the input is not valid JSON")
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fault.New(fault.KindSchema, "", "the input must be a JSON object")
	}

	keys := make([]string, 0, len(schema.InputKeys()))
	values := make(map[string]gjson.Result)
	doc.ForEach(func(k, v gjson.Result) bool {
		keys = append(keys, k.String())
		values[k.String()] = v
		return true
	})

	if !slices.Equal(keys, schema.InputKeys()) {
		return nil, fault.Newf(fault.KindSchema, "",
			"the input has incorrect keys %v, expected %v in that order", keys, schema.InputKeys())
	}

	in := &Input{}

	ti := values[schema.KeyTotalItems]
	if !isIntegerLiteral(ti) {
		return nil, fault.Newf(fault.KindType, schema.KeyTotalItems, "must be an integer, got %s", ti.Raw)
	}
	n, err := strconv.Atoi(ti.Raw)
	if err != nil {
		return nil, fault.Newf(fault.KindRange, schema.KeyTotalItems, "integer out of range: %s", ti.Raw)
	}
	in.TotalItems = n

	d := values[schema.KeyDiscount]
	if d.Type != gjson.Number {
		return nil, fault.Newf(fault.KindType, schema.KeyDiscount, "must be a number, got %s", d.Raw)
	}
	in.Discount = d.Float()
	if in.Discount < minDiscount || in.Discount > maxDiscount {
		return nil, fault.Newf(fault.KindRange, schema.KeyDiscount,
			"must be between %d and %d, got %v", minDiscount, maxDiscount, in.Discount)
	}

	wd := values[schema.KeyWeekday]
	if wd.Type != gjson.String {
		return nil, fault.Newf(fault.KindType, schema.KeyWeekday, "must be a string, got %s", wd.Raw)
	}
	if !schema.IsWeekday(wd.Str) {
		return nil, fault.Newf(fault.KindEnum, schema.KeyWeekday,
			`must be in the format "Mon", "Tue", etc, got %q`, wd.Str)
	}
	in.Weekday = wd.Str

	h := values[schema.KeyHour]
	if h.Type != gjson.String {
		return nil, fault.Newf(fault.KindType, schema.KeyHour, "must be a string, got %s", h.Raw)
	}
	if !schema.IsHour(h.Str) {
		return nil, fault.Newf(fault.KindEnum, schema.KeyHour,
			`must be in the format "00h", "01h", etc up to "23h", got %q`, h.Str)
	}
	in.Hour = h.Str

	return in, nil
}

func isIntegerLiteral(v gjson.Result) bool {
	return v.Type == gjson.Number && !strings.ContainsAny(v.Raw, ".eE")
}
