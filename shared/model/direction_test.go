package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionBitsAreDistinct(t *testing.T) {
	var mask uint8
	for _, d := range AllDirections {
		assert.Zero(t, mask&d.Bit(), "bit repetido para %s", d)
		mask |= d.Bit()
	}
	assert.Equal(t, uint8(0x3F), mask)
}

func TestBasisIsRightHanded(t *testing.T) {
	for _, d := range AllDirections {
		w, h, n := d.Basis()
		assert.Equal(t, n, w.Cross(h), "largura × altura deve ser a normal (%s)", d)
	}
}

func TestParseCullRule(t *testing.T) {
	tests := []struct {
		in      string
		want    CullRule
		wantErr bool
	}{
		{"", Never, false},
		{"never", Never, false},
		{"hidden:up", WhenHidden(Up), false},
		{"Visible:Backwards", WhenVisible(Backwards), false},
		{"hidden", Never, true},
		{"hidden:sideways", Never, true},
		{"sometimes:up", Never, true},
	}

	for _, tt := range tests {
		got, err := ParseCullRule(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestCulled(t *testing.T) {
	upOccupied := Up.Bit()

	assert.False(t, Never.Culled(0x3F))
	assert.True(t, WhenHidden(Up).Culled(upOccupied))
	assert.False(t, WhenHidden(Up).Culled(Down.Bit()))
	assert.True(t, WhenVisible(Up).Culled(0))
	assert.False(t, WhenVisible(Up).Culled(upOccupied))
}

func TestCullRuleStringRoundTrip(t *testing.T) {
	for _, r := range []CullRule{Never, WhenHidden(Left), WhenVisible(Forward)} {
		got, err := ParseCullRule(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
}

func TestUVRemapApply(t *testing.T) {
	r := UVRemap{Offset: [2]float32{0.5, 0.25}, Scale: [2]float32{0.5, 0.25}}
	assert.Equal(t, [2]float32{0.5, 0.25}, [2]float32(r.Apply([2]float32{0, 0})))
	assert.Equal(t, [2]float32{1, 0.5}, [2]float32(r.Apply([2]float32{1, 1})))
}
