package checkout

import (
	"sort"

	"checkout-service/internal/models"
)

// BuildLineItems joins the cart against a catalog snapshot. Entries whose
// product is missing from the catalog are dropped without error. Products are
// visited in sorted id order, sizes in sorted order.
func BuildLineItems(cart models.Cart, catalog []models.Product) []models.LineItem {
	byID := make(map[string]models.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	items := make([]models.LineItem, 0, len(cart))
	for _, productID := range sortedKeys(cart) {
		product, ok := byID[productID]
		if !ok {
			continue
		}
		sizes := cart[productID]
		for _, size := range sortedKeys(sizes) {
			qty := sizes[size]
			if qty <= 0 {
				continue
			}
			items = append(items, models.LineItem{
				ID:       product.ID,
				Name:     product.Name,
				Price:    product.Price,
				Size:     size,
				Quantity: qty,
			})
		}
	}
	return items
}

// Subtotal sums price x quantity over the items.
func Subtotal(items []models.LineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// OrderAmount is the subtotal plus the flat delivery fee.
func OrderAmount(items []models.LineItem, deliveryFee int64) int64 {
	return Subtotal(items) + deliveryFee
}

// PreferenceItems strips internal identifiers before items go to the provider.
func PreferenceItems(items []models.LineItem) []models.PreferenceItem {
	out := make([]models.PreferenceItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.PreferenceItem{
			Title:    item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
