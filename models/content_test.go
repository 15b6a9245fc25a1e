package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurrentStake(t *testing.T) {
	c := ContentItem{StakeTotal: 100, BurnedTotal: 35}
	require.Equal(t, int64(65), c.CurrentStake())
}

func TestMaxBurnPercentage(t *testing.T) {
	c := ContentItem{}
	require.Equal(t, 0, c.MaxBurnPercentage())

	c.BurnHistory = []BurnRecord{
		{BurnPercentage: 10},
		{BurnPercentage: 50},
		{BurnPercentage: 25},
	}
	require.Equal(t, 50, c.MaxBurnPercentage())
}
