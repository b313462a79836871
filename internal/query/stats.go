package query

import (
	"math"

	"github.com/abgdnv/productapi/internal/store"
)

type Stats struct {
	TotalProducts   int            `json:"totalProducts"`
	TotalInStock    int            `json:"totalInStock"`
	TotalOutOfStock int            `json:"totalOutOfStock"`
	Categories      map[string]int `json:"categories"`
	PriceStats      PriceStats     `json:"priceStats"`
}

type PriceStats struct {
	Highest float64 `json:"highest"`
	Lowest  float64 `json:"lowest"`
	Average float64 `json:"average"`
}

// ComputeStats aggregates the whole collection. Price statistics are zero when it is empty.
func ComputeStats(products []store.Product) Stats {
	stats := Stats{
		TotalProducts: len(products),
		Categories:    make(map[string]int),
	}
	if len(products) == 0 {
		return stats
	}

	highest, lowest, sum := math.Inf(-1), math.Inf(1), 0.0
	for _, p := range products {
		if p.InStock {
			stats.TotalInStock++
		} else {
			stats.TotalOutOfStock++
		}
		stats.Categories[p.Category]++
		highest = max(highest, p.Price)
		lowest = min(lowest, p.Price)
		sum += p.Price
	}
	stats.PriceStats = PriceStats{
		Highest: highest,
		Lowest:  lowest,
		Average: math.Round(sum/float64(len(products))*100) / 100,
	}
	return stats
}
