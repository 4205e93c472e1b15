// Package schema holds the fixed label sets and the ordered feature layout
// shared by the training and scoring pipelines.
package schema

import (
	"slices"
)

const (
	WeekdayPrefix = "weekday_"
	HourPrefix    = "hour_"

	// BaseWeekday and BaseHour are the dropped reference levels of the
	// one-hot encoding; an all-zero indicator block encodes them.
	BaseWeekday = "Mon"
	BaseHour    = "00h"

	TotalItemsFeature = "total_items"
	DiscountFeature   = "discount"

	KeyTotalItems = "total_items"
	KeyDiscount   = "discount%"
	KeyWeekday    = "weekday"
	KeyHour       = "hour"

	// ShareSuffix marks the category share columns in the raw data and
	// the keys of the scoring output.
	ShareSuffix = "%"
)

var (
	weekdays = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

	hours = [...]string{
		"00h", "01h", "02h", "03h", "04h", "05h", "06h", "07h",
		"08h", "09h", "10h", "11h", "12h", "13h", "14h", "15h",
		"16h", "17h", "18h", "19h", "20h", "21h", "22h", "23h",
	}

	// responses is the column order of the category shares in the raw data.
	responses = [...]string{"Food", "Fresh", "Drinks", "Home", "Beauty", "Health", "Baby", "Pets"}

	inputKeys = [...]string{KeyTotalItems, KeyDiscount, KeyWeekday, KeyHour}

	featureNames = buildFeatureNames()
	featureIndex = buildFeatureIndex(featureNames)
)

// Weekdays returns the weekday labels in chronological order.
func Weekdays() []string {
	return slices.Clone(weekdays[:])
}

// Hours returns the hour labels from 00h to 23h.
func Hours() []string {
	return slices.Clone(hours[:])
}

// ResponseColumns returns the category names in raw data column order.
func ResponseColumns() []string {
	return slices.Clone(responses[:])
}

// Categories returns the category names sorted by name, which is the
// column order of the classifier output.
func Categories() []string {
	c := slices.Clone(responses[:])
	slices.Sort(c)
	return c
}

// InputKeys returns the scoring input keys in their required order.
func InputKeys() []string {
	return slices.Clone(inputKeys[:])
}

// OutputKeys returns the scoring output keys, one per sorted category.
func OutputKeys() []string {
	c := Categories()
	for i := range c {
		c[i] += ShareSuffix
	}
	return c
}

// IsWeekday reports whether s is one of the fixed weekday labels.
func IsWeekday(s string) bool {
	return slices.Contains(weekdays[:], s)
}

// IsHour reports whether s is one of the fixed hour labels.
func IsHour(s string) bool {
	return slices.Contains(hours[:], s)
}

// FeatureNames returns the ordered feature layout: the two scaled numeric
// fields, then one indicator per non-base weekday and per non-base hour.
// The classifier coefficient layout depends on this order.
func FeatureNames() []string {
	return slices.Clone(featureNames)
}

// FeatureIndex returns the position of name in FeatureNames.
func FeatureIndex(name string) (int, bool) {
	i, ok := featureIndex[name]
	return i, ok
}

// FeatureCount is the length of every feature vector.
func FeatureCount() int {
	return len(featureNames)
}

func buildFeatureNames() []string {
	names := make([]string, 0, 2+len(weekdays)-1+len(hours)-1)
	names = append(names, TotalItemsFeature, DiscountFeature)
	for _, d := range weekdays {
		if d == BaseWeekday {
			continue
		}
		names = append(names, WeekdayPrefix+d)
	}
	for _, h := range hours {
		if h == BaseHour {
			continue
		}
		names = append(names, HourPrefix+h)
	}
	return names
}

func buildFeatureIndex(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, n := range names {
		m[n] = i
	}
	return m
}
