package util

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	off, lim := Calculate(0, 0)
	assert.Equal(t, 0, off)
	assert.Equal(t, DefaultPageSize, lim)

	off, lim = Calculate(3, 5)
	assert.Equal(t, 10, off)
	assert.Equal(t, 5, lim)

	_, lim = Calculate(1, 1000)
	assert.Equal(t, DefaultPageSize, lim)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
}

func TestPaginateLinks(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	self, err := url.Parse("http://shop.local/api/v1/shop/products/?search=a&page=2")
	require.NoError(t, err)

	p := Paginate(items, 2, 2, self)
	assert.Equal(t, 5, p.Count)
	assert.Equal(t, []int{3, 4}, p.Results)
	require.NotNil(t, p.Next)
	require.NotNil(t, p.Previous)
	assert.Equal(t, "http://shop.local/api/v1/shop/products/?page=3&search=a", *p.Next)
	assert.Equal(t, "http://shop.local/api/v1/shop/products/?search=a", *p.Previous)

	last := Paginate(items, 3, 2, self)
	assert.Equal(t, []int{5}, last.Results)
	assert.Nil(t, last.Next)

	beyond := Paginate(items, 9, 2, nil)
	assert.Empty(t, beyond.Results)
	assert.NotNil(t, beyond.Results)
}

func TestInitials(t *testing.T) {
	cases := map[string]string{
		"Sarah Mitchell":      "SM",
		"Jessica M.":          "JM",
		"ana maria de souza":  "AM",
		"Cher":                "C",
		"   ":                 "U",
		"":                    "U",
		"émile zola":          "ÉZ",
	}
	for in, want := range cases {
		assert.Equal(t, want, Initials(in), in)
	}
}
