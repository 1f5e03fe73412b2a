package session

import (
	"math"
	"testing"
)

func TestCalculateBMI(t *testing.T) {
	got := CalculateBMI(70, 175)
	if math.Abs(got-22.86) > 0.01 {
		t.Errorf("CalculateBMI(70, 175) = %v, want 22.86", got)
	}
	if c := CategoryFor(got); c != CategoryNormal {
		t.Errorf("CategoryFor(%v) = %q, want %q", got, c, CategoryNormal)
	}
}

func TestCalculateBMIRequiresBothInputs(t *testing.T) {
	if got := CalculateBMI(70, 0); got != 0 {
		t.Errorf("missing height: got %v", got)
	}
	if got := CalculateBMI(0, 175); got != 0 {
		t.Errorf("missing weight: got %v", got)
	}
}

func TestCategoryBands(t *testing.T) {
	cases := []struct {
		bmi  float64
		want string
	}{
		{0, ""},
		{-1, ""},
		{18.49, CategoryUnderweight},
		{18.5, CategoryNormal},
		{24.99, CategoryNormal},
		{25, CategoryOverweight},
		{29.99, CategoryOverweight},
		{30, CategoryObese},
		{42.5, CategoryObese},
	}
	for _, tc := range cases {
		if got := CategoryFor(tc.bmi); got != tc.want {
			t.Errorf("CategoryFor(%v) = %q, want %q", tc.bmi, got, tc.want)
		}
	}
}
