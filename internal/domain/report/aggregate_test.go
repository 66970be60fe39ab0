package report

import (
	"testing"
	"time"

	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kst = time.FixedZone("KST", 9*60*60)

func line(orderID, day, product, option string, qty, amount int64) order.OrderLine {
	l := order.OrderLine{
		OrderID:       orderID,
		Status:        order.StatusPaid,
		ProductName:   product,
		OptionLabel:   option,
		Quantity:      qty,
		LineAmount:    decimal.NewFromInt(amount),
		BuyerName:     "buyer-" + orderID,
		BuyerPhone:    "010",
		StreetAddress: "Seoul Mapo-gu",
		Source:        order.LineSourceEmbedded,
	}
	if day != "" {
		ts, err := time.ParseInLocation(order.DateLayout, day, kst)
		if err != nil {
			panic(err)
		}
		l.OrderedAt = ts.Add(10 * time.Hour)
	}
	return l
}

func sampleLines() []order.OrderLine {
	return []order.OrderLine{
		line("1", "2024-03-02", "Cream", "50ml", 2, 50000),
		line("1", "2024-03-02", "Serum", "", 1, 42000),
		line("2", "2024-03-01", "Cream", "100ml", 1, 45000),
		line("3", "", "Mask", "10ea", 3, 90000),
		line("4", "2024-03-01", "Serum", "", 3, 126000),
	}
}

// ---------------------------------------------------------------------------
// Summary Tests
// ---------------------------------------------------------------------------

func TestSummarize(t *testing.T) {
	s := Summarize(sampleLines())

	assert.True(t, decimal.NewFromInt(353000).Equal(s.TotalAmount))
	assert.Equal(t, int64(10), s.TotalQuantity)
	assert.Equal(t, 4, s.DistinctOrders)
	assert.Equal(t, 5, s.LineCount)
	assert.True(t, decimal.NewFromInt(88250).Equal(s.AvgOrderValue), "got %s", s.AvgOrderValue)
	assert.Equal(t, 0, s.ItemlessOrders)
}

func TestSummarize_CountsItemlessOrders(t *testing.T) {
	sentinel := line("9", "2024-03-01", order.NoItemProductName, "", 1, 0)
	sentinel.Source = order.LineSourceItemless

	s := Summarize([]order.OrderLine{sentinel})
	assert.Equal(t, 1, s.ItemlessOrders)
	assert.Equal(t, int64(1), s.TotalQuantity)
}

func TestEmptyInput(t *testing.T) {
	r := Build(nil, 10)

	assert.True(t, r.Summary.TotalAmount.IsZero())
	assert.True(t, r.Summary.AvgOrderValue.IsZero())
	assert.Equal(t, int64(0), r.Summary.TotalQuantity)
	assert.Equal(t, 0, r.Summary.DistinctOrders)
	assert.NotNil(t, r.Daily)
	assert.Empty(t, r.Daily)
	assert.NotNil(t, r.Products)
	assert.Empty(t, r.Products)
	assert.NotNil(t, r.ProductsByAmount)
	assert.Empty(t, r.ProductsByAmount)
	assert.NotNil(t, r.Options)
	assert.Empty(t, r.Options)
	assert.NotNil(t, r.Customers)
	assert.Empty(t, r.Customers)
	assert.NotNil(t, r.Regions)
	assert.Empty(t, r.Regions)
}

// ---------------------------------------------------------------------------
// Daily Tests
// ---------------------------------------------------------------------------

func TestDailyAmounts(t *testing.T) {
	daily := DailyAmounts(sampleLines())

	require.Len(t, daily, 3)
	assert.Equal(t, "2024-03-01", daily[0].Date)
	assert.True(t, decimal.NewFromInt(171000).Equal(daily[0].Amount))
	assert.Equal(t, 2, daily[0].OrderCount)
	assert.Equal(t, "2024-03-02", daily[1].Date)
	assert.True(t, decimal.NewFromInt(92000).Equal(daily[1].Amount))
	assert.Equal(t, 1, daily[1].OrderCount)
	assert.Equal(t, order.UnknownDate, daily[2].Date)
	assert.Equal(t, int64(3), daily[2].Quantity)
}

// ---------------------------------------------------------------------------
// Ranking Tests
// ---------------------------------------------------------------------------

func TestRankProducts(t *testing.T) {
	ranking := RankProducts(sampleLines(), 0)

	require.Len(t, ranking, 3)
	// Serum(4) first; Cream(3) and Mask(3) tie, Cream seen first
	assert.Equal(t, "Serum", ranking[0].ProductName)
	assert.Equal(t, int64(4), ranking[0].Quantity)
	assert.Equal(t, 2, ranking[0].OrderCount)
	assert.Equal(t, "Cream", ranking[1].ProductName)
	assert.Equal(t, "Mask", ranking[2].ProductName)
	for i, e := range ranking {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestRankProductsByAmount(t *testing.T) {
	ranking := RankProductsByAmount(sampleLines(), 2)

	require.Len(t, ranking, 2)
	assert.Equal(t, "Serum", ranking[0].ProductName)
	assert.True(t, decimal.NewFromInt(168000).Equal(ranking[0].Amount))
	assert.Equal(t, "Cream", ranking[1].ProductName)
	assert.True(t, decimal.NewFromInt(95000).Equal(ranking[1].Amount))
	assert.Equal(t, 2, ranking[1].Rank)
}

func TestRankOptions(t *testing.T) {
	ranking := RankOptions(sampleLines(), 2)

	require.Len(t, ranking, 2)
	assert.Equal(t, "Serum", ranking[0].ProductName)
	assert.Equal(t, "", ranking[0].OptionLabel)
	assert.Equal(t, "Mask", ranking[1].ProductName)
	assert.Equal(t, "10ea", ranking[1].OptionLabel)
}

func TestRankProducts_TiesKeepFirstSeenOrder(t *testing.T) {
	lines := []order.OrderLine{
		line("1", "", "B", "", 1, 0),
		line("2", "", "A", "", 1, 0),
		line("3", "", "C", "", 1, 0),
	}

	ranking := RankProducts(lines, 0)
	assert.Equal(t, "B", ranking[0].ProductName)
	assert.Equal(t, "A", ranking[1].ProductName)
	assert.Equal(t, "C", ranking[2].ProductName)
}

func TestRankCustomers(t *testing.T) {
	lines := sampleLines()
	orphan := line("5", "", "Soap", "", 1, 999999)
	orphan.BuyerName = order.Placeholder
	orphan.BuyerPhone = order.Placeholder
	lines = append(lines, orphan)

	ranking := RankCustomers(lines, 3)

	require.Len(t, ranking, 3)
	assert.Equal(t, order.Placeholder, ranking[0].BuyerName)
	assert.Equal(t, "buyer-4", ranking[1].BuyerName)
	assert.Equal(t, "buyer-1", ranking[2].BuyerName)
	assert.True(t, decimal.NewFromInt(92000).Equal(ranking[2].TotalAmount))
	assert.Equal(t, 1, ranking[2].OrderCount)
	assert.Equal(t, "Seoul", ranking[2].Region)
}

func TestRegionCounts(t *testing.T) {
	lines := sampleLines()
	busan := line("6", "", "Soap", "", 1, 1000)
	busan.StreetAddress = "Busan Haeundae-gu"
	lines = append(lines, busan)

	regions := RegionCounts(lines)

	require.Len(t, regions, 2)
	assert.Equal(t, RegionStat{Region: "Seoul", OrderCount: 4, Amount: regions[0].Amount}, regions[0])
	assert.True(t, decimal.NewFromInt(353000).Equal(regions[0].Amount))
	assert.Equal(t, "Busan", regions[1].Region)
	assert.Equal(t, 1, regions[1].OrderCount)
}

func TestRegion(t *testing.T) {
	assert.Equal(t, "Seoul", Region("  Seoul Gangnam-gu 1"))
	assert.Equal(t, order.Placeholder, Region(""))
	assert.Equal(t, order.Placeholder, Region(order.Placeholder))
}
