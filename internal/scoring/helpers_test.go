package scoring

import (
	"time"

	"github.com/wonny/aurora/engine/internal/contracts"
)

// alternatingBars builds n bars whose closes move by up, down, up, down...
func alternatingBars(n int, start, up, down float64) []contracts.PriceBar {
	base := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.PriceBar, n)

	price := start
	for i := 0; i < n; i++ {
		if i > 0 {
			if i%2 == 1 {
				price *= 1 + up
			} else {
				price *= 1 + down
			}
		}
		bars[i] = contracts.PriceBar{
			Date:   base.AddDate(0, 0, i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 250_000,
		}
	}
	return bars
}

func risingBars(n int) []contracts.PriceBar {
	return alternatingBars(n, 100, 0.012, -0.008)
}

func fallingBars(n int) []contracts.PriceBar {
	return alternatingBars(n, 100, -0.012, 0.008)
}
