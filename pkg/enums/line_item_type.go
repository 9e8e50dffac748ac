package enums

import "fmt"

// LineItemType is the closed set of catalog variants an estimate line can
// reference. Matching on it is exhaustive in the totals and conversion paths.
type LineItemType string

const (
	LineItemTypePart         LineItemType = "part"
	LineItemTypeLaborService LineItemType = "labor_service"
)

var validLineItemTypes = []LineItemType{
	LineItemTypePart,
	LineItemTypeLaborService,
}

// String implements fmt.Stringer.
func (t LineItemType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known LineItemType.
func (t LineItemType) IsValid() bool {
	for _, candidate := range validLineItemTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLineItemType converts raw input into a LineItemType.
func ParseLineItemType(value string) (LineItemType, error) {
	for _, candidate := range validLineItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item type %q", value)
}
