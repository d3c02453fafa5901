package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		count    int
		number   int
		numPages int
	}{
		{"first page by default", "", 13, 1, 2},
		{"second page", "2", 13, 2, 2},
		{"not a number", "abc", 13, 1, 2},
		{"out of range clamps to last", "99", 13, 2, 2},
		{"zero clamps to last", "0", 13, 2, 2},
		{"negative clamps to last", "-1", 25, 3, 3},
		{"empty listing has one page", "5", 0, 1, 1},
		{"exact multiple", "2", 20, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := NewPage(tt.raw, tt.count, DefaultPerPage)
			assert.Equal(t, tt.number, page.Number)
			assert.Equal(t, tt.numPages, page.NumPages)
		})
	}
}

func TestPageNavigation(t *testing.T) {
	first := NewPage("1", 13, 10)
	assert.Equal(t, 0, first.Offset())
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())
	assert.True(t, first.HasOtherPages())
	assert.Equal(t, 2, first.NextPageNumber())
	assert.Equal(t, 1, first.PreviousPageNumber())

	last := NewPage("2", 13, 10)
	assert.Equal(t, 10, last.Offset())
	assert.False(t, last.HasNext())
	assert.Equal(t, 1, last.PreviousPageNumber())
	assert.Equal(t, []int{1, 2}, last.PageRange())

	only := NewPage("", 3, 10)
	assert.False(t, only.HasOtherPages())
}

func TestNewPageDefaultsPerPage(t *testing.T) {
	page := NewPage("1", 30, 0)
	assert.Equal(t, DefaultPerPage, page.PerPage)
	assert.Equal(t, 3, page.NumPages)
}

func TestParsePageNumber(t *testing.T) {
	for raw, want := range map[string]int{
		"":    1,
		"abc": 1,
		"2":   2,
		"02":  2,
		" 2":  2,
		"0":   0,
		"-3":  -3,
	} {
		assert.Equal(t, want, ParsePageNumber(raw), raw)
	}
}
