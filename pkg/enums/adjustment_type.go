package enums

import "fmt"

// AdjustmentType selects how the final-price override is applied.
type AdjustmentType string

const (
	AdjustmentTypeNone    AdjustmentType = "None"
	AdjustmentTypeValue   AdjustmentType = "Value"
	AdjustmentTypePercent AdjustmentType = "Percent"
)

var validAdjustmentTypes = []AdjustmentType{
	AdjustmentTypeNone,
	AdjustmentTypeValue,
	AdjustmentTypePercent,
}

// String implements fmt.Stringer.
func (a AdjustmentType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdjustmentType.
func (a AdjustmentType) IsValid() bool {
	for _, candidate := range validAdjustmentTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAdjustmentType converts raw input into an AdjustmentType.
func ParseAdjustmentType(value string) (AdjustmentType, error) {
	for _, candidate := range validAdjustmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment type %q", value)
}
