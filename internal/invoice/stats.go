package invoice

import (
	"sort"
)

type CategoryTotal struct {
	Category Category `json:"category"`
	Sum      float64  `json:"sum"`
	Count    int      `json:"count"`
}

type MerchantVisits struct {
	Merchant string `json:"merchant"`
	Visits   int    `json:"visits"`
}

type DailyTotal struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type Summary struct {
	TotalAmount  float64          `json:"total_amount"`
	Count        int              `json:"count"`
	Largest      float64          `json:"largest"`
	Smallest     float64          `json:"smallest"`
	ByCategory   []CategoryTotal  `json:"by_category"`
	TopMerchants []MerchantVisits `json:"top_merchants"`
	Daily        []DailyTotal     `json:"daily"`
}

const topMerchantCount = 5

// Summarize computes dashboard statistics. Categories appear in their fixed
// order and only when they have transactions; daily totals are date-ordered.
func Summarize(transactions []Transaction) Summary {
	var s Summary
	if len(transactions) == 0 {
		return s
	}

	byCategory := make(map[Category]*CategoryTotal)
	visits := make(map[string]int)
	var merchantOrder []string
	daily := make(map[string]float64)

	s.Largest, s.Smallest = transactions[0].Amount, transactions[0].Amount
	for _, t := range transactions {
		s.TotalAmount += t.Amount
		s.Count++
		if t.Amount > s.Largest {
			s.Largest = t.Amount
		}
		if t.Amount < s.Smallest {
			s.Smallest = t.Amount
		}

		ct, ok := byCategory[t.Category]
		if !ok {
			ct = &CategoryTotal{Category: t.Category}
			byCategory[t.Category] = ct
		}
		ct.Sum += t.Amount
		ct.Count++

		if _, seen := visits[t.Description]; !seen {
			merchantOrder = append(merchantOrder, t.Description)
		}
		visits[t.Description]++
		daily[t.Date] += t.Amount
	}

	for _, c := range Categories {
		if ct, ok := byCategory[c]; ok {
			s.ByCategory = append(s.ByCategory, *ct)
		}
	}

	merchants := make([]MerchantVisits, 0, len(merchantOrder))
	for _, m := range merchantOrder {
		merchants = append(merchants, MerchantVisits{Merchant: m, Visits: visits[m]})
	}
	sort.SliceStable(merchants, func(i, j int) bool { return merchants[i].Visits > merchants[j].Visits })
	if len(merchants) > topMerchantCount {
		merchants = merchants[:topMerchantCount]
	}
	s.TopMerchants = merchants

	for date, amount := range daily {
		s.Daily = append(s.Daily, DailyTotal{Date: date, Amount: amount})
	}
	sort.Slice(s.Daily, func(i, j int) bool { return s.Daily[i].Date < s.Daily[j].Date })
	return s
}
