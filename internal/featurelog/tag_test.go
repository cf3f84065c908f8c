package featurelog

import "testing"

func TestTagForMTS(t *testing.T) {
	tests := []struct {
		idx  int
		want Tag
	}{
		{MTSDCT2DCT2, TagDCT2DCT2},
		{MTSSkip, TagSkip},
		{MTSDST7DST7, TagDST7DST7},
		{MTSDCT8DST7, TagDCT8DST7},
		{MTSDST7DCT8, TagDST7DCT8},
		{MTSDCT8DCT8, TagDCT8DCT8},
		{6, TagUnknown},
		{-1, TagUnknown},
		{1 << 20, TagUnknown},
	}
	for _, tt := range tests {
		if got := TagForMTS(tt.idx); got != tt.want {
			t.Errorf("TagForMTS(%d) = %s, want %s", tt.idx, got, tt.want)
		}
	}
}

func TestDecisionTag(t *testing.T) {
	if got := (Decision{MTSIndex: MTSDCT8DCT8, HasResidual: false}).Tag(); got != TagSkip {
		t.Errorf("no residual: got %s, want %s", got, TagSkip)
	}
	if got := (Decision{MTSIndex: 99, HasResidual: false}).Tag(); got != TagSkip {
		t.Errorf("no residual with junk index: got %s, want %s", got, TagSkip)
	}
	if got := (Decision{MTSIndex: MTSDCT8DCT8, HasResidual: true}).Tag(); got != TagDCT8DCT8 {
		t.Errorf("coded residual: got %s, want %s", got, TagDCT8DCT8)
	}
	if got := (Decision{MTSIndex: 42, HasResidual: true}).Tag(); got != TagUnknown {
		t.Errorf("unrecognised index: got %s, want %s", got, TagUnknown)
	}
}

func TestIdentityKey(t *testing.T) {
	id := Identity{POC: 3, X: 64, Y: 32, Width: 16, Height: 8, Channel: ChannelChroma}
	if got := id.Key(); got != "3_64_32_16_8_1" {
		t.Errorf("Key() = %q", got)
	}
	id.Seq = 7
	if got := id.Key(); got != "3_64_32_16_8_1_s7" {
		t.Errorf("Key() with seq = %q", got)
	}
	if (Identity{}).Key() == NoKey {
		t.Error("zero identity must not collide with NoKey")
	}
}
