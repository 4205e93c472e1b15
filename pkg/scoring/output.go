package scoring

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/mchmarny/ordermix/pkg/schema"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const (
	fileMode     = 0600
	percentScale = 100
)

// Share is one output entry: a category key and its whole percentage.
type Share struct {
	Key     string `json:"key" yaml:"key"`
	Percent int    `json:"percent" yaml:"percent"`
}

// Output is the formatted prediction in output key order.
type Output []Share

// FormatOutput rounds each probability to a whole percentage and maps the
// sorted classes onto the output keys. The values are not forced to sum
// to 100.
func FormatOutput(classes []string, probs []float64) (Output, error) {
	if len(classes) != len(probs) {
		return nil, fmt.Errorf("expected %d probabilities, got %d", len(classes), len(probs))
	}

	byClass := make(map[string]float64, len(classes))
	for i, c := range classes {
		byClass[c] = probs[i]
	}

	keys := schema.OutputKeys()
	out := make(Output, 0, len(keys))
	for _, k := range keys {
		p, ok := byClass[strings.TrimSuffix(k, schema.ShareSuffix)]
		if !ok {
			return nil, fmt.Errorf("model has no class for output %s", k)
		}
		out = append(out, Share{Key: k, Percent: int(math.RoundToEven(p * percentScale))})
	}
	return out, nil
}

// Sum returns the total of all percentages.
func (o Output) Sum() int {
	s := 0
	for _, v := range o {
		s += v.Percent
	}
	return s
}

// Get returns the percentage for key.
func (o Output) Get(key string) (int, bool) {
	for _, v := range o {
		if v.Key == key {
			return v.Percent, true
		}
	}
	return 0, false
}

// MarshalJSON encodes the output as a flat object with keys in output order.
func (o Output) MarshalJSON() ([]byte, error) {
	b := []byte("{}")
	var err error
	for _, v := range o {
		if b, err = sjson.SetBytes(b, v.Key, v.Percent); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", v.Key, err)
		}
	}
	return b, nil
}

// WriteOutput writes the output document to path, one key per line.
func WriteOutput(path string, o Output) error {
	b, err := o.MarshalJSON()
	if err != nil {
		return err
	}
	b = pretty.PrettyOptions(b, &pretty.Options{Width: 80, Indent: " "})
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("writing output %s: %w", path, err)
	}
	return nil
}
