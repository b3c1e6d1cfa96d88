package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// ItemView is the read model for one cart line.
type ItemView struct {
	ID        uuid.UUID       `json:"id"`
	VariantID uuid.UUID       `json:"variant_id"`
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// View is the cacheable read model for a whole cart, including the advisory
// validation report computed at build time.
type View struct {
	CartID           uuid.UUID        `json:"cart_id"`
	Status           enums.CartStatus `json:"status"`
	Currency         enums.Currency   `json:"currency"`
	Items            []ItemView       `json:"items"`
	ItemCount        int              `json:"item_count"`
	Subtotal         decimal.Decimal  `json:"subtotal"`
	ExpiresAt        time.Time        `json:"expires_at"`
	Validation       *Report          `json:"validation,omitempty"`
	DeliveryEstimate string           `json:"delivery_estimate"`
}

// buildView projects a cart row and its validation report into the read model.
func buildView(c *models.Cart, report *Report) *View {
	view := &View{
		CartID:    c.ID,
		Status:    c.Status,
		Currency:  enums.CurrencyUSD,
		Subtotal:  decimal.Zero,
		ExpiresAt: c.ExpiresAt,
	}
	for _, item := range c.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		itemView := ItemView{
			ID:        item.ID,
			VariantID: item.ProductVariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: lineTotal,
		}
		if item.Variant != nil {
			itemView.ProductID = item.Variant.ProductID
			itemView.SKU = item.Variant.SKU
			itemView.Title = item.Variant.Title
		}
		view.Currency = item.Currency
		view.Items = append(view.Items, itemView)
		view.ItemCount += item.Quantity
		view.Subtotal = view.Subtotal.Add(lineTotal)
	}
	if report != nil {
		view.Validation = report
		view.DeliveryEstimate = report.DeliveryEstimate
	} else {
		view.DeliveryEstimate = DeliveryEstimateStandard
	}
	return view
}
