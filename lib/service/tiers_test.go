package service

import (
	"testing"

	"github.com/staglieno/soulhub/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindTier(t *testing.T) {
	svc := &SoulService{}

	tier, err := svc.FindTier(common.TierTomb)
	require.NoError(t, err)
	assert.Equal(t, "Tomb", tier.Name)
	assert.Equal(t, int64(2100), tier.Price)

	tier, err = svc.FindTier(common.TierSpark)
	require.NoError(t, err)
	assert.Equal(t, int64(21), tier.Price)

	_, err = svc.FindTier("mausoleum")
	assert.Error(t, err)
}

func TestTierRequires(t *testing.T) {
	svc := &SoulService{}

	spark, err := svc.FindTier(common.TierSpark)
	require.NoError(t, err)
	assert.True(t, spark.Requires("name"))
	assert.False(t, spark.Requires("creature"))

	tomb, err := svc.FindTier(common.TierTomb)
	require.NoError(t, err)
	assert.True(t, tomb.Requires("creature"))
}

func TestTiersOrderedByPrice(t *testing.T) {
	require.NotEmpty(t, Tiers)
	for i := 1; i < len(Tiers); i++ {
		assert.Greater(t, Tiers[i].Price, Tiers[i-1].Price)
	}
}
