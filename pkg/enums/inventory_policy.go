package enums

import "fmt"

// InventoryPolicy controls whether a product may be purchased past zero stock.
type InventoryPolicy string

const (
	InventoryPolicyDeny     InventoryPolicy = "deny"
	InventoryPolicyContinue InventoryPolicy = "continue"
)

var validInventoryPolicies = []InventoryPolicy{
	InventoryPolicyDeny,
	InventoryPolicyContinue,
}

// String implements fmt.Stringer.
func (i InventoryPolicy) String() string {
	return string(i)
}

// AllowsOverselling reports whether stock may go negative under this policy.
func (i InventoryPolicy) AllowsOverselling() bool {
	return i == InventoryPolicyContinue
}

// IsValid reports whether the value is a known InventoryPolicy.
func (i InventoryPolicy) IsValid() bool {
	for _, candidate := range validInventoryPolicies {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInventoryPolicy converts raw input into an InventoryPolicy.
func ParseInventoryPolicy(value string) (InventoryPolicy, error) {
	for _, candidate := range validInventoryPolicies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory policy %q", value)
}
