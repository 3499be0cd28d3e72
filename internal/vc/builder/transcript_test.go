package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultClassThresholds(t *testing.T) {
	cases := []struct {
		cgpa float64
		want string
	}{
		{9.2, "First Class with Distinction"},
		{7.75, "First Class with Distinction"}, // inclusive lower bound
		{7.74, "First Class"},
		{6.75, "First Class"},
		{6.74, "Second Class"},
		{5.50, "Second Class"},
		{5.49, "Pass"},
		{0, "Pass"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ResultClass(tc.cgpa), "cgpa %v", tc.cgpa)
	}
}

func TestNumberInWords(t *testing.T) {
	assert.Equal(t, "Eight Point Five Zero", NumberInWords(8.5))
	assert.Equal(t, "Nine Point Zero Zero", NumberInWords(9))
	assert.Equal(t, "One Zero Point Zero Zero", NumberInWords(10))
	assert.Equal(t, "Seven Point Three Three", NumberInWords(7.33))
	assert.Equal(t, "Zero Point Zero Zero", NumberInWords(0))
}

func TestYearOfCompletionBoundary(t *testing.T) {
	// The graduation-year boundary is inclusive: a batch whose fourth year
	// is the current year reads Pursuing even with all eight semesters.
	assert.Equal(t, "Pursuing", yearOfCompletion(2021, 2025, 8))
	assert.Equal(t, "Pursuing", yearOfCompletion(2020, 2025, 8))

	// Before the boundary, completion requires all eight semesters.
	assert.Equal(t, "Completed", yearOfCompletion(2022, 2025, 8))
	assert.Equal(t, "Pursuing", yearOfCompletion(2022, 2025, 4))
	assert.Equal(t, "Pursuing", yearOfCompletion(2022, 2025, 0))
}
