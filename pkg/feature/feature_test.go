package feature

import (
	"strings"
	"testing"

	"github.com/mchmarny/ordermix/pkg/fault"
	"github.com/mchmarny/ordermix/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSpec = ScalingSpec{
	TotalItemsMin: 0,
	TotalItemsMax: 100,
	DiscountMin:   0,
	DiscountMax:   50,
}

func TestConvert_RoundTrip(t *testing.T) {
	c, err := Convert(50, 25, "Wed", "12h", testSpec)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, c.TotalItems, 1e-12)
	assert.InDelta(t, 0.5, c.Discount, 1e-12)
	assert.Equal(t, "weekday_Wed", c.Weekday)
	assert.Equal(t, "hour_12h", c.Hour)

	v, err := Assemble(c)
	require.NoError(t, err)
	require.Len(t, v, schema.FeatureCount())
	assert.Equal(t, 1.0, v.Get("weekday_Wed"))
	assert.Equal(t, 1.0, v.Get("hour_12h"))

	ones := 0
	for _, n := range schema.FeatureNames()[2:] {
		if v.Get(n) == 1 {
			ones++
		} else {
			assert.Equal(t, 0.0, v.Get(n), n)
		}
	}
	assert.Equal(t, 2, ones)
}

func TestConvert_LabelSets(t *testing.T) {
	for _, d := range schema.Weekdays() {
		for _, h := range schema.Hours() {
			c, err := Convert(10, 5, d, h, testSpec)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(c.Weekday, schema.WeekdayPrefix))
			assert.True(t, schema.IsWeekday(strings.TrimPrefix(c.Weekday, schema.WeekdayPrefix)))
			assert.True(t, schema.IsHour(strings.TrimPrefix(c.Hour, schema.HourPrefix)))
		}
	}
}

func TestEncode_ValuesInUnitRange(t *testing.T) {
	for _, d := range schema.Weekdays() {
		for _, h := range schema.Hours() {
			v, err := Encode(73, 12.5, d, h, testSpec)
			require.NoError(t, err)
			for i, x := range v {
				assert.GreaterOrEqual(t, x, 0.0, i)
				assert.LessOrEqual(t, x, 1.0, i)
			}
		}
	}
}

func TestEncode_BaseCategoriesAllZero(t *testing.T) {
	v, err := Encode(0, 0, schema.BaseWeekday, schema.BaseHour, testSpec)
	require.NoError(t, err)
	for _, x := range v {
		assert.Equal(t, 0.0, x)
	}
}

func TestEncode_UnknownLabel(t *testing.T) {
	_, err := Encode(1, 1, "Monday", "01h", testSpec)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindEnum))

	_, err = Encode(1, 1, "Tue", "24h", testSpec)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindEnum))
}

func TestScale_Bounds(t *testing.T) {
	v, err := Scale(3, 3, 9)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = Scale(9, 3, 9)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestScale_Degenerate(t *testing.T) {
	_, err := Scale(5, 5, 5)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindDegenerateScaling))

	_, err = Convert(5, 5, "Mon", "00h", ScalingSpec{TotalItemsMin: 1, TotalItemsMax: 1, DiscountMax: 1})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindDegenerateScaling))
	assert.Contains(t, err.Error(), "total_items")
}

func TestFitScaling(t *testing.T) {
	s, err := FitScaling([]float64{4, 1, 9}, []float64{0, 30, 12})
	require.NoError(t, err)
	assert.Equal(t, ScalingSpec{TotalItemsMin: 1, TotalItemsMax: 9, DiscountMin: 0, DiscountMax: 30}, s)

	_, err = FitScaling([]float64{2, 2}, []float64{0, 1})
	assert.True(t, fault.Is(err, fault.KindDegenerateScaling))

	_, err = FitScaling(nil, nil)
	assert.Error(t, err)
}

func TestParseScalingSpec(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind fault.Kind
	}{
		{"not json", `{`, fault.KindArtifact},
		{"missing key", `{"total_items_min":0,"total_items_max":1,"discount%_min":0}`, fault.KindArtifact},
		{"wrong type", `{"total_items_min":"0","total_items_max":1,"discount%_min":0,"discount%_max":1}`, fault.KindArtifact},
		{"degenerate", `{"total_items_min":1,"total_items_max":1,"discount%_min":0,"discount%_max":1}`, fault.KindDegenerateScaling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScalingSpec([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, fault.Is(err, tt.kind), err.Error())
		})
	}
}

func TestScalingSpec_ArtifactRoundTrip(t *testing.T) {
	b, err := testSpec.MarshalArtifact()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"discount%_max"`)

	s, err := ParseScalingSpec(b)
	require.NoError(t, err)
	assert.Equal(t, testSpec, s)
}

func TestShareHelpers(t *testing.T) {
	assert.Equal(t, "Food", ShareColumn("Food%"))
	assert.Equal(t, "Pets", ShareColumn(" Pets% "))
	assert.InDelta(t, 0.255, ToProbability(25.5), 1e-12)
}
