package report

import (
	"cmp"
	"slices"
	"strings"

	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/shopspring/decimal"
)

// Build computes every aggregate for lines. topN limits each ranking; topN <= 0 keeps all rows.
func Build(lines []order.OrderLine, topN int) SalesReport {
	return SalesReport{
		Summary:          Summarize(lines),
		Daily:            DailyAmounts(lines),
		Products:         RankProducts(lines, topN),
		ProductsByAmount: RankProductsByAmount(lines, topN),
		Options:          RankOptions(lines, topN),
		Customers:        RankCustomers(lines, topN),
		Regions:          RegionCounts(lines),
	}
}

// Summarize returns totals over lines. An empty input yields zero values.
func Summarize(lines []order.OrderLine) SalesSummary {
	s := SalesSummary{
		TotalAmount:   decimal.Zero,
		AvgOrderValue: decimal.Zero,
		LineCount:     len(lines),
	}
	orders := make(map[string]struct{})
	itemless := make(map[string]struct{})
	for _, l := range lines {
		s.TotalAmount = s.TotalAmount.Add(l.LineAmount)
		s.TotalQuantity += l.Quantity
		orders[l.OrderID] = struct{}{}
		if l.IsItemless() {
			itemless[l.OrderID] = struct{}{}
		}
	}
	s.DistinctOrders = len(orders)
	s.ItemlessOrders = len(itemless)
	if s.DistinctOrders > 0 {
		s.AvgOrderValue = s.TotalAmount.DivRound(decimal.NewFromInt(int64(s.DistinctOrders)), 2)
	}
	return s
}

// DailyAmounts sums line amounts per order day, ascending by day.
// Lines without a timestamp are collected under order.UnknownDate, listed last.
func DailyAmounts(lines []order.OrderLine) []DailyAmount {
	byDate := make(map[string]*DailyAmount)
	seenOrders := make(map[string]map[string]struct{})
	for _, l := range lines {
		date := l.OrderDate()
		d, ok := byDate[date]
		if !ok {
			d = &DailyAmount{Date: date, Amount: decimal.Zero}
			byDate[date] = d
			seenOrders[date] = make(map[string]struct{})
		}
		d.Amount = d.Amount.Add(l.LineAmount)
		d.Quantity += l.Quantity
		if _, dup := seenOrders[date][l.OrderID]; !dup {
			seenOrders[date][l.OrderID] = struct{}{}
			d.OrderCount++
		}
	}

	out := make([]DailyAmount, 0, len(byDate))
	for _, d := range byDate {
		out = append(out, *d)
	}
	slices.SortFunc(out, func(a, b DailyAmount) int {
		aUnknown, bUnknown := a.Date == order.UnknownDate, b.Date == order.UnknownDate
		switch {
		case aUnknown && !bUnknown:
			return 1
		case bUnknown && !aUnknown:
			return -1
		}
		return cmp.Compare(a.Date, b.Date)
	})
	return out
}

// RankProducts ranks product names by total quantity, descending.
// Ties keep first-seen order.
func RankProducts(lines []order.OrderLine, topN int) []RankingEntry {
	return rank(lines, topN, productKey, byQuantity)
}

// RankProductsByAmount ranks product names by total line amount, descending.
// Ties keep first-seen order.
func RankProductsByAmount(lines []order.OrderLine, topN int) []RankingEntry {
	return rank(lines, topN, productKey, byAmount)
}

func productKey(l order.OrderLine) RankingEntry {
	return RankingEntry{ProductName: l.ProductName}
}

func byQuantity(a, b RankingEntry) int { return cmp.Compare(b.Quantity, a.Quantity) }

func byAmount(a, b RankingEntry) int { return b.Amount.Cmp(a.Amount) }

// RankOptions ranks (product, option) pairs by total quantity, descending.
// Ties keep first-seen order.
func RankOptions(lines []order.OrderLine, topN int) []RankingEntry {
	return rank(lines, topN, func(l order.OrderLine) RankingEntry {
		return RankingEntry{ProductName: l.ProductName, OptionLabel: l.OptionLabel}
	}, byQuantity)
}

func rank(
	lines []order.OrderLine,
	topN int,
	keyOf func(order.OrderLine) RankingEntry,
	compare func(a, b RankingEntry) int,
) []RankingEntry {
	type rankingKey struct{ product, option string }

	index := make(map[rankingKey]int)
	orders := make(map[rankingKey]map[string]struct{})
	entries := make([]RankingEntry, 0)
	for _, l := range lines {
		e := keyOf(l)
		k := rankingKey{e.ProductName, e.OptionLabel}
		i, ok := index[k]
		if !ok {
			i = len(entries)
			index[k] = i
			orders[k] = make(map[string]struct{})
			e.Amount = decimal.Zero
			entries = append(entries, e)
		}
		entries[i].Quantity += l.Quantity
		entries[i].Amount = entries[i].Amount.Add(l.LineAmount)
		if _, dup := orders[k][l.OrderID]; !dup {
			orders[k][l.OrderID] = struct{}{}
			entries[i].OrderCount++
		}
	}

	slices.SortStableFunc(entries, compare)
	entries = truncate(entries, topN)
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// RankCustomers ranks buyers by total spend, descending. Buyers are identified
// by name and phone; lines with neither fall back to their order id.
func RankCustomers(lines []order.OrderLine, topN int) []CustomerRanking {
	index := make(map[string]int)
	orders := make(map[string]map[string]struct{})
	entries := make([]CustomerRanking, 0)
	for _, l := range lines {
		key := customerKey(l)
		i, ok := index[key]
		if !ok {
			i = len(entries)
			index[key] = i
			orders[key] = make(map[string]struct{})
			entries = append(entries, CustomerRanking{
				BuyerName:   l.BuyerName,
				BuyerPhone:  l.BuyerPhone,
				Region:      Region(l.StreetAddress),
				TotalAmount: decimal.Zero,
			})
		}
		entries[i].TotalAmount = entries[i].TotalAmount.Add(l.LineAmount)
		if _, dup := orders[key][l.OrderID]; !dup {
			orders[key][l.OrderID] = struct{}{}
			entries[i].OrderCount++
		}
	}

	slices.SortStableFunc(entries, func(a, b CustomerRanking) int {
		return b.TotalAmount.Cmp(a.TotalAmount)
	})
	entries = truncate(entries, topN)
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func customerKey(l order.OrderLine) string {
	if l.BuyerName == order.Placeholder && l.BuyerPhone == order.Placeholder {
		return "order:" + l.OrderID
	}
	return l.BuyerName + "\x00" + l.BuyerPhone
}

// RegionCounts counts distinct orders per region, most orders first.
// Ties keep first-seen order.
func RegionCounts(lines []order.OrderLine) []RegionStat {
	index := make(map[string]int)
	seen := make(map[string]struct{})
	stats := make([]RegionStat, 0)
	for _, l := range lines {
		region := Region(l.StreetAddress)
		i, ok := index[region]
		if !ok {
			i = len(stats)
			index[region] = i
			stats = append(stats, RegionStat{Region: region, Amount: decimal.Zero})
		}
		stats[i].Amount = stats[i].Amount.Add(l.LineAmount)
		if _, dup := seen[region+"\x00"+l.OrderID]; !dup {
			seen[region+"\x00"+l.OrderID] = struct{}{}
			stats[i].OrderCount++
		}
	}
	slices.SortStableFunc(stats, func(a, b RegionStat) int {
		return cmp.Compare(b.OrderCount, a.OrderCount)
	})
	return stats
}

// Region returns the first whitespace-separated token of a street address.
func Region(address string) string {
	fields := strings.Fields(address)
	if len(fields) == 0 {
		return order.Placeholder
	}
	return fields[0]
}

func truncate[T any](s []T, topN int) []T {
	if topN > 0 && len(s) > topN {
		return s[:topN]
	}
	return s
}
