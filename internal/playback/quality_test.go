package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVideoQualityBitrate(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 664_000},
		{"3", 2_000_000},
		{"10", 12_200_000},
		{"15", 20_000_000},
		{"16", 40_000_000},
		{"17", 100_000_000},
		{"18", 1_000_000_000},
		{"", UnlimitedBitrate},
		{"19", UnlimitedBitrate},
		{"-1", UnlimitedBitrate},
		{"max", UnlimitedBitrate},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseVideoQuality(tt.in).Bitrate(), "tier %q", tt.in)
	}
	assert.Equal(t, int64(2_147_483_000), UnlimitedBitrate)
}

func TestH265TierThreshold(t *testing.T) {
	for in, want := range map[string]int{"1": 480, "2": 720, "3": 1080} {
		got, ok := ParseH265Tier(in).Threshold()
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "0", "4", "x"} {
		_, ok := ParseH265Tier(in).Threshold()
		assert.False(t, ok, in)
	}
}
