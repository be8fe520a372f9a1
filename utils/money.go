package utils

import "math"

// Round2 rounds x to 2 decimal places (banking-style simple round).
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Round4 rounds x to 4 decimal places; used for areas and stock quantities.
func Round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
