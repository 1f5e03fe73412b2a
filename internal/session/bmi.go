// Package session correlates face-scan events with averaged scale
// measurements into one person session, computes BMI against prior history,
// and owns the save/clear lifecycle.
package session

import "math"

// Category labels for the fixed BMI bands.
const (
	CategoryUnderweight = "Underweight"
	CategoryNormal      = "Normal"
	CategoryOverweight  = "Overweight"
	CategoryObese       = "Obese"
)

// CalculateBMI returns the body-mass index for weight in kilograms and
// height in centimetres, rounded to two decimals. Zero unless both inputs
// are positive.
func CalculateBMI(weight, height float64) float64 {
	if weight <= 0 || height <= 0 {
		return 0
	}
	m := height / 100
	return math.Round(weight/(m*m)*100) / 100
}

// CategoryFor maps a BMI value onto its band. An unset BMI has no category.
func CategoryFor(bmi float64) string {
	switch {
	case bmi <= 0:
		return ""
	case bmi < 18.5:
		return CategoryUnderweight
	case bmi < 25:
		return CategoryNormal
	case bmi < 30:
		return CategoryOverweight
	default:
		return CategoryObese
	}
}
