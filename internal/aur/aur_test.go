package aur

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoEmptyInputShortCircuits(t *testing.T) {
	c := NewClient()
	results, err := c.Info(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestSearchEmptyQueryShortCircuits(t *testing.T) {
	c := NewClient()
	results, err := c.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, results)
}
