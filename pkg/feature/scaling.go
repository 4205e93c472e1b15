package feature

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/mchmarny/ordermix/pkg/fault"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const scalingSchemaURL = "schema://minmax_scaler.json"

// scalingSchema describes the persisted scaler artifact.
const scalingSchema = `{
  "type": "object",
  "required": ["total_items_min", "total_items_max", "discount%_min", "discount%_max"],
  "properties": {
    "total_items_min": {"type": "number"},
    "total_items_max": {"type": "number"},
    "discount%_min": {"type": "number"},
    "discount%_max": {"type": "number"}
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// ScalingSpec holds the min/max bounds of the numeric features, fitted once
// on the training data and reused verbatim at scoring time.
type ScalingSpec struct {
	TotalItemsMin float64 `json:"total_items_min" yaml:"totalItemsMin"`
	TotalItemsMax float64 `json:"total_items_max" yaml:"totalItemsMax"`
	DiscountMin   float64 `json:"discount%_min" yaml:"discountMin"`
	DiscountMax   float64 `json:"discount%_max" yaml:"discountMax"`
}

// Validate requires max > min for both fields.
func (s ScalingSpec) Validate() error {
	if !(s.TotalItemsMax > s.TotalItemsMin) {
		return fault.Newf(fault.KindDegenerateScaling, "total_items",
			"max (%v) must be greater than min (%v)", s.TotalItemsMax, s.TotalItemsMin)
	}
	if !(s.DiscountMax > s.DiscountMin) {
		return fault.Newf(fault.KindDegenerateScaling, "discount%",
			"max (%v) must be greater than min (%v)", s.DiscountMax, s.DiscountMin)
	}
	return nil
}

// FitScaling computes the bounds from the raw training columns.
func FitScaling(totalItems, discounts []float64) (ScalingSpec, error) {
	if len(totalItems) == 0 || len(discounts) == 0 {
		return ScalingSpec{}, fault.New(fault.KindDegenerateScaling, "", "no values to fit scaling on")
	}

	s := ScalingSpec{
		TotalItemsMin: slices.Min(totalItems),
		TotalItemsMax: slices.Max(totalItems),
		DiscountMin:   slices.Min(discounts),
		DiscountMax:   slices.Max(discounts),
	}
	if err := s.Validate(); err != nil {
		return ScalingSpec{}, err
	}
	return s, nil
}

// Scale maps value onto [0,1] using the given bounds.
func Scale(value, min, max float64) (float64, error) {
	if !(max > min) {
		return 0, fault.Newf(fault.KindDegenerateScaling, "",
			"cannot scale with max (%v) <= min (%v)", max, min)
	}
	return (value - min) / (max - min), nil
}

// ParseScalingSpec decodes and checks a persisted scaler artifact.
func ParseScalingSpec(b []byte) (ScalingSpec, error) {
	sch, err := getScalingSchema()
	if err != nil {
		return ScalingSpec{}, fault.Wrap(err, fault.KindArtifact, "compiling scaler schema")
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return ScalingSpec{}, fault.Wrap(err, fault.KindArtifact, "scaler is not valid JSON")
	}

	if err := sch.Validate(doc); err != nil {
		return ScalingSpec{}, fault.Wrap(err, fault.KindArtifact, "scaler does not match schema")
	}

	var s ScalingSpec
	if err := json.Unmarshal(b, &s); err != nil {
		return ScalingSpec{}, fault.Wrap(err, fault.KindArtifact, "decoding scaler")
	}

	if err := s.Validate(); err != nil {
		return ScalingSpec{}, err
	}
	return s, nil
}

// MarshalArtifact encodes the bounds in their persisted form.
func (s ScalingSpec) MarshalArtifact() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	b, err := json.MarshalIndent(s, "", " ")
	if err != nil {
		return nil, fmt.Errorf("encoding scaler: %w", err)
	}
	return b, nil
}

func getScalingSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(scalingSchema)))
		if err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(scalingSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}

		compiledSchema, compileErr = c.Compile(scalingSchemaURL)
	})
	return compiledSchema, compileErr
}
