package util

import "math"

/*
Percentage returns numerator/denominator*100 rounded to 2 decimals.

A zero (or negative) denominator yields 0, never NaN or Inf.
*/
func Percentage(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return Round2((float64(numerator) / float64(denominator)) * 100.0)
}

// Round2 rounds half away from zero to 2 decimals.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
