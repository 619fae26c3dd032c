package prompt

import "testing"

import "github.com/stretchr/testify/assert"

func TestParseSelectionBasic(t *testing.T) {
	assert.Equal(t, []int{1, 3, 5}, ParseSelection("1 3 5", 10))
}

func TestParseSelectionRange(t *testing.T) {
	assert.Equal(t, []int{2, 3, 4, 5}, ParseSelection("2-5", 10))
}

func TestParseSelectionReversedRange(t *testing.T) {
	assert.Equal(t, []int{2, 3, 4, 5}, ParseSelection("5-2", 10))
}

func TestParseSelectionDedupAndBounds(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, ParseSelection("1 2 3 2 99 0 -5", 3))
}

func TestParseSelectionCommaSeparated(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, ParseSelection("1,2,3", 5))
}

func TestParseSelectionEmpty(t *testing.T) {
	assert.Empty(t, ParseSelection("", 10))
	assert.Empty(t, ParseSelection("   ", 10))
}

func TestParseSelectionMalformedTokensDropped(t *testing.T) {
	assert.Equal(t, []int{2}, ParseSelection("abc 2 x-y", 10))
}
