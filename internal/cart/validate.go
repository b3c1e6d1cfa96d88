package cart

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// Delivery estimate bands keyed off the worst validation severity. A blocked
// cart ships whenever stock returns, a degraded cart needs manual sourcing
// time, a clean cart follows the standard promise.
const (
	DeliveryEstimateStandard  = "24-72h"
	DeliveryEstimateDegraded  = "48-96h"
	DeliveryEstimateBackorder = "backorder"
)

// lowStockHeadroom is the largest post-purchase remainder that still warrants
// a low-stock warning on a satisfiable line.
const lowStockHeadroom = 2

// Issue describes one problem found while checking a cart line against
// current catalog state.
type Issue struct {
	ItemID    uuid.UUID           `json:"item_id"`
	VariantID uuid.UUID           `json:"variant_id"`
	Type      enums.CartIssueType `json:"type"`
	Severity  enums.IssueSeverity `json:"severity"`
	Message   string              `json:"message"`
	Requested int                 `json:"requested,omitempty"`
	Available *int                `json:"available,omitempty"`
}

// Report is the advisory result of validating a cart. Checkout re-checks
// stock inside its transaction; this report never substitutes for that.
type Report struct {
	CartID           uuid.UUID           `json:"cart_id"`
	Severity         enums.IssueSeverity `json:"severity"`
	Issues           []Issue             `json:"issues"`
	DeliveryEstimate string              `json:"delivery_estimate"`
}

// Blocking reports whether any issue prevents checkout.
func (r *Report) Blocking() bool {
	if r == nil {
		return false
	}
	return r.Severity == enums.IssueSeverityError
}

// BlockingIssues returns only the issues that prevent checkout.
func (r *Report) BlockingIssues() []Issue {
	if r == nil {
		return nil
	}
	var blocking []Issue
	for _, issue := range r.Issues {
		if issue.Severity == enums.IssueSeverityError {
			blocking = append(blocking, issue)
		}
	}
	return blocking
}

// Evaluate checks every cart line against the supplied variant snapshots.
// Checkout uses it to fail fast with structured issues before reserving stock.
func Evaluate(c *models.Cart, variants map[uuid.UUID]*models.ProductVariant) *Report {
	return buildReport(c, variants)
}

// buildReport checks every cart line against the supplied variant snapshots.
// A missing entry in variants means the variant no longer exists.
func buildReport(c *models.Cart, variants map[uuid.UUID]*models.ProductVariant) *Report {
	report := &Report{
		CartID:   c.ID,
		Severity: enums.IssueSeverityOK,
	}

	for _, item := range c.Items {
		issues := validateLine(item, variants[item.ProductVariantID])
		report.Issues = append(report.Issues, issues...)
	}

	for _, issue := range report.Issues {
		if issue.Severity == enums.IssueSeverityError {
			report.Severity = enums.IssueSeverityError
			break
		}
		report.Severity = enums.IssueSeverityWarning
	}

	switch report.Severity {
	case enums.IssueSeverityError:
		report.DeliveryEstimate = DeliveryEstimateBackorder
	case enums.IssueSeverityWarning:
		report.DeliveryEstimate = DeliveryEstimateDegraded
	default:
		report.DeliveryEstimate = DeliveryEstimateStandard
	}
	return report
}

func validateLine(item models.CartItem, variant *models.ProductVariant) []Issue {
	if variant == nil {
		return []Issue{newIssue(item, enums.CartIssueVariantUnavailable, "variant no longer exists", nil)}
	}
	if variant.Product != nil && variant.Product.Status != enums.ProductStatusActive {
		return []Issue{newIssue(item, enums.CartIssueProductUnavailable,
			fmt.Sprintf("product is %s", variant.Product.Status), nil)}
	}

	var issues []Issue
	oversellable := variant.Product != nil && variant.Product.InventoryPolicy.AllowsOverselling()
	if !oversellable {
		available := variant.Stock
		switch {
		case available < item.Quantity:
			issues = append(issues, newIssue(item, enums.CartIssueOutOfStock,
				fmt.Sprintf("only %d of %d available", available, item.Quantity), &available))
		case available-item.Quantity <= lowStockHeadroom:
			issues = append(issues, newIssue(item, enums.CartIssueLowStock,
				fmt.Sprintf("only %d would remain after this purchase", available-item.Quantity), &available))
		}
	}
	if !variant.Price.Equal(item.UnitPrice) {
		issues = append(issues, newIssue(item, enums.CartIssuePriceMismatch,
			fmt.Sprintf("price changed from %s to %s", item.UnitPrice.StringFixed(2), variant.Price.StringFixed(2)), nil))
	}
	return issues
}

func newIssue(item models.CartItem, issueType enums.CartIssueType, message string, available *int) Issue {
	return Issue{
		ItemID:    item.ID,
		VariantID: item.ProductVariantID,
		Type:      issueType,
		Severity:  issueType.Severity(),
		Message:   message,
		Requested: item.Quantity,
		Available: available,
	}
}
