// Package feature turns order attributes into the fixed-layout feature
// vector consumed by the classifier. Training and scoring both go through
// Encode so the two sides cannot drift apart.
package feature

import (
	"strings"

	"github.com/mchmarny/ordermix/pkg/fault"
	"github.com/mchmarny/ordermix/pkg/schema"
)

const percentScale = 100

// Converted holds the scaled numeric values and the prefixed labels of one
// order, ready to be assembled into a Vector.
type Converted struct {
	TotalItems float64
	Discount   float64
	Weekday    string
	Hour       string
}

// Vector is a feature vector laid out as schema.FeatureNames.
type Vector []float64

// Get returns the value of the named feature, or 0 when the name is not
// part of the layout.
func (v Vector) Get(name string) float64 {
	i, ok := schema.FeatureIndex(name)
	if !ok || i >= len(v) {
		return 0
	}
	return v[i]
}

// Convert scales the numeric inputs and prefixes the categorical labels.
func Convert(totalItems, discount float64, weekday, hour string, s ScalingSpec) (Converted, error) {
	ti, err := Scale(totalItems, s.TotalItemsMin, s.TotalItemsMax)
	if err != nil {
		return Converted{}, withField(err, schema.KeyTotalItems)
	}

	d, err := Scale(discount, s.DiscountMin, s.DiscountMax)
	if err != nil {
		return Converted{}, withField(err, schema.KeyDiscount)
	}

	return Converted{
		TotalItems: ti,
		Discount:   d,
		Weekday:    schema.WeekdayPrefix + weekday,
		Hour:       schema.HourPrefix + hour,
	}, nil
}

// Assemble lays a converted order out over the shared feature schema.
// The base weekday and hour leave their indicator blocks all zero.
func Assemble(c Converted) (Vector, error) {
	v := make(Vector, schema.FeatureCount())
	v[0] = c.TotalItems
	v[1] = c.Discount

	if err := setIndicator(v, c.Weekday, schema.WeekdayPrefix+schema.BaseWeekday, schema.KeyWeekday); err != nil {
		return nil, err
	}
	if err := setIndicator(v, c.Hour, schema.HourPrefix+schema.BaseHour, schema.KeyHour); err != nil {
		return nil, err
	}
	return v, nil
}

// Encode converts and assembles one order.
func Encode(totalItems, discount float64, weekday, hour string, s ScalingSpec) (Vector, error) {
	c, err := Convert(totalItems, discount, weekday, hour, s)
	if err != nil {
		return nil, err
	}
	return Assemble(c)
}

// ShareColumn strips the percent suffix from a category share column name.
func ShareColumn(name string) string {
	return strings.TrimSuffix(strings.TrimSpace(name), schema.ShareSuffix)
}

// ToProbability converts a percentage share to a probability.
func ToProbability(pct float64) float64 {
	return pct / percentScale
}

func setIndicator(v Vector, label, base, field string) error {
	if label == base {
		return nil
	}
	i, ok := schema.FeatureIndex(label)
	if !ok || !strings.HasPrefix(label, field+"_") {
		return fault.Newf(fault.KindEnum, field, "unknown label %q", label)
	}
	v[i] = 1
	return nil
}

func withField(err error, field string) error {
	if fe, ok := err.(*fault.Error); ok && fe.Field == "" {
		fe.Field = field
	}
	return err
}
