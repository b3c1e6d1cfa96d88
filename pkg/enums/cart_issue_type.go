package enums

// CartIssueType identifies a problem detected while re-validating a cart line
// against current catalog state.
type CartIssueType string

const (
	CartIssueVariantUnavailable CartIssueType = "variant_unavailable"
	CartIssueProductUnavailable CartIssueType = "product_unavailable"
	CartIssueOutOfStock         CartIssueType = "out_of_stock"
	CartIssueLowStock           CartIssueType = "low_stock"
	CartIssuePriceMismatch      CartIssueType = "price_mismatch"
)

// Severity buckets issues into blocking errors and advisory warnings.
func (c CartIssueType) Severity() IssueSeverity {
	switch c {
	case CartIssueVariantUnavailable, CartIssueProductUnavailable, CartIssueOutOfStock:
		return IssueSeverityError
	default:
		return IssueSeverityWarning
	}
}

// Blocking reports whether the issue prevents checkout.
func (c CartIssueType) Blocking() bool {
	return c.Severity() == IssueSeverityError
}

// IssueSeverity ranks cart validation issues.
type IssueSeverity string

const (
	IssueSeverityOK      IssueSeverity = "ok"
	IssueSeverityWarning IssueSeverity = "warning"
	IssueSeverityError   IssueSeverity = "error"
)
