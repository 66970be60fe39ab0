package report

import (
	"github.com/shopspring/decimal"
)

// SalesSummary provides aggregated sales statistics over a line set
type SalesSummary struct {
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalQuantity  int64           `json:"total_quantity"`
	DistinctOrders int             `json:"distinct_orders"`
	LineCount      int             `json:"line_count"`
	AvgOrderValue  decimal.Decimal `json:"avg_order_value"`
	ItemlessOrders int             `json:"itemless_orders"`
}

// DailyAmount is the per-day sum of line amounts
type DailyAmount struct {
	Date       string          `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Quantity   int64           `json:"quantity"`
	OrderCount int             `json:"order_count"`
}

// RankingEntry represents a product (or product option) sales ranking row
type RankingEntry struct {
	Rank        int             `json:"rank"`
	ProductName string          `json:"product_name"`
	OptionLabel string          `json:"option_label,omitempty"`
	Quantity    int64           `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	OrderCount  int             `json:"order_count"`
}

// CustomerRanking represents a buyer ranked by total spend
type CustomerRanking struct {
	Rank        int             `json:"rank"`
	BuyerName   string          `json:"buyer_name"`
	BuyerPhone  string          `json:"buyer_phone"`
	Region      string          `json:"region"`
	OrderCount  int             `json:"order_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// RegionStat counts orders per region, the first token of the street address
type RegionStat struct {
	Region     string          `json:"region"`
	OrderCount int             `json:"order_count"`
	Amount     decimal.Decimal `json:"amount"`
}

// SalesReport bundles every aggregate for one line set
type SalesReport struct {
	Summary          SalesSummary      `json:"summary"`
	Daily            []DailyAmount     `json:"daily"`
	Products         []RankingEntry    `json:"products"`
	ProductsByAmount []RankingEntry    `json:"products_by_amount"`
	Options          []RankingEntry    `json:"options"`
	Customers        []CustomerRanking `json:"customers"`
	Regions          []RegionStat      `json:"regions"`
}
