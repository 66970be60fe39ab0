package order

import (
	"fmt"
	"slices"
	"sort"
)

// Schema holds the ordered candidate keys for every logical field.
// Earlier candidates win. Dotted candidates walk nested objects.
type Schema struct {
	// Order-level fields
	OrderID        []string
	OrderedAt      []string
	Status         []string
	OrderAmount    []string
	BuyerName      []string
	BuyerPhone     []string
	RecipientName  []string
	RecipientPhone []string
	PostalCode     []string
	Address        []string
	AddressDetail  []string
	DeliveryNote   []string
	Items          []string

	// Item-level fields
	ItemOrderID     []string
	ItemOrderedAt   []string
	ItemProductName []string
	ItemOption      []string
	ItemQuantity    []string
	ItemLineAmount  []string
	ItemUnitPrice   []string
}

// DefaultSchema returns the candidate history observed across storefront API versions.
// Each call returns fresh slices.
func DefaultSchema() Schema {
	return Schema{
		OrderID:        []string{"order_no", "order_code", "order_id", "orderNo", "order.order_no"},
		OrderedAt:      []string{"order_date", "payment_date", "order_time", "ordered_at", "created_at", "date"},
		Status:         []string{"order_status", "status", "state", "order.status"},
		OrderAmount:    []string{"pay_price", "payment.pay_price", "total_price", "payment.total_price"},
		BuyerName:      []string{"orderer.name", "billing_person.name", "buyer.name", "buyer_name", "orderer_name"},
		BuyerPhone:     []string{"orderer.call", "orderer.tel", "billing_person.tel", "billing_person.call", "buyer.phone", "buyer_phone"},
		RecipientName:  []string{"shipping.name", "shipping_address.name", "delivery.address.name", "receiver_name", "recipient_name"},
		RecipientPhone: []string{"shipping.call", "shipping.tel", "shipping_address.tel", "shipping_address.call", "delivery.address.phone", "receiver_phone"},
		PostalCode:     []string{"shipping.zipcode", "shipping.postcode", "shipping_address.postcode", "shipping_address.zipcode", "delivery.address.postcode", "zipcode", "postcode"},
		Address:        []string{"shipping.address", "shipping_address.address", "delivery.address.address1", "address"},
		AddressDetail:  []string{"shipping.address_detail", "shipping_address.address_detail", "delivery.address.address2", "address_detail"},
		DeliveryNote:   []string{"shipping.memo", "shipping_address.memo", "delivery.memo", "delivery_memo", "buyer_message", "memo"},
		Items:          []string{"items", "order_items", "prod_orders", "products"},

		ItemOrderID:     []string{"order_no", "order_code", "order_id", "orderNo", "order.order_no"},
		ItemOrderedAt:   []string{"order_date", "payment_date", "order_time", "ordered_at"},
		ItemProductName: []string{"prod_name", "product_name", "productName", "name", "product.name"},
		ItemOption:      []string{"options_str", "option_name", "option", "options", "option_label"},
		ItemQuantity:    []string{"ea", "amount", "quantity", "qty", "count"},
		ItemLineAmount:  []string{"price_total", "total_price", "pay_price", "line_amount", "payment.total_price"},
		ItemUnitPrice:   []string{"price", "unit_price", "sale_price"},
	}
}

func (s *Schema) fields() map[string]*[]string {
	return map[string]*[]string{
		"order_id":          &s.OrderID,
		"ordered_at":        &s.OrderedAt,
		"status":            &s.Status,
		"order_amount":      &s.OrderAmount,
		"buyer_name":        &s.BuyerName,
		"buyer_phone":       &s.BuyerPhone,
		"recipient_name":    &s.RecipientName,
		"recipient_phone":   &s.RecipientPhone,
		"postal_code":       &s.PostalCode,
		"address":           &s.Address,
		"address_detail":    &s.AddressDetail,
		"delivery_note":     &s.DeliveryNote,
		"items":             &s.Items,
		"item_order_id":     &s.ItemOrderID,
		"item_ordered_at":   &s.ItemOrderedAt,
		"item_product_name": &s.ItemProductName,
		"item_option":       &s.ItemOption,
		"item_quantity":     &s.ItemQuantity,
		"item_line_amount":  &s.ItemLineAmount,
		"item_unit_price":   &s.ItemUnitPrice,
	}
}

// FieldNames lists the logical field names accepted by Extend, sorted.
func FieldNames() []string {
	var s Schema
	names := make([]string, 0, len(s.fields()))
	for name := range s.fields() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extend returns a copy of s with extra candidates appended per logical field.
// Keys already present are not duplicated. Unknown field names are rejected.
func (s Schema) Extend(extra map[string][]string) (Schema, error) {
	out := s.clone()
	fields := out.fields()
	for name, keys := range extra {
		dst, ok := fields[name]
		if !ok {
			return Schema{}, fmt.Errorf("%w: %q", ErrUnknownSchemaField, name)
		}
		for _, k := range keys {
			if k != "" && !slices.Contains(*dst, k) {
				*dst = append(*dst, k)
			}
		}
	}
	return out, nil
}

func (s Schema) clone() Schema {
	out := s
	for _, field := range out.fields() {
		*field = slices.Clone(*field)
	}
	return out
}
