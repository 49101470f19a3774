package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTranslator(t *testing.T, bits int) *Translator {
	t.Helper()
	tr, err := NewTranslator(bits)
	require.NoError(t, err)
	return tr
}

func TestDutyMaxForBits(t *testing.T) {
	cases := []struct {
		bits int
		want int
	}{
		{1, 1},
		{8, 255},
		{10, 1023},
		{12, 4095},
		{16, 65535},
	}
	for _, tc := range cases {
		got, err := DutyMaxForBits(tc.bits)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "bits=%d", tc.bits)
	}
}

func TestDutyMaxForBits_OutOfRange(t *testing.T) {
	for _, bits := range []int{-1, 0, 17, 32} {
		_, err := DutyMaxForBits(bits)
		assert.Error(t, err, "bits=%d", bits)
	}
}

func TestDuty_Endpoints(t *testing.T) {
	for bits := MinResolutionBits; bits <= MaxResolutionBits; bits++ {
		tr := newTranslator(t, bits)
		assert.Equal(t, 0, tr.Duty(0), "bits=%d", bits)
		assert.Equal(t, tr.DutyMax(), tr.Duty(100), "bits=%d", bits)
	}
}

func TestDuty_Monotonic(t *testing.T) {
	for _, bits := range []int{1, 4, 8, 10, 16} {
		tr := newTranslator(t, bits)
		prev := tr.Duty(0)
		for pct := 1; pct <= 100; pct++ {
			cur := tr.Duty(pct)
			if cur < prev {
				t.Fatalf("bits=%d: Duty(%d)=%d < Duty(%d)=%d", bits, pct, cur, pct-1, prev)
			}
			prev = cur
		}
	}
}

func TestDuty_TenBit(t *testing.T) {
	tr := newTranslator(t, 10)
	cases := []struct {
		pct  int
		want int
	}{
		{0, 0},
		{1, 10},
		{25, 256},
		{50, 512},
		{75, 767},
		{100, 1023},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tr.Duty(tc.pct), "pct=%d", tc.pct)
	}
}

func TestDuty_ClampsOutOfRange(t *testing.T) {
	tr := newTranslator(t, 10)
	assert.Equal(t, 0, tr.Duty(-50))
	assert.Equal(t, 1023, tr.Duty(250))
}

func TestAngle(t *testing.T) {
	tr := newTranslator(t, 10)
	for deg := 0; deg <= 180; deg++ {
		assert.Equal(t, deg, tr.Angle(deg))
	}
	assert.Equal(t, 180, tr.Angle(200))
	assert.Equal(t, 0, tr.Angle(-10))
}

func TestNewTranslator_InvalidResolution(t *testing.T) {
	_, err := NewTranslator(0)
	assert.Error(t, err)
}
