package timeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

func TestMinutesRoundTrip(t *testing.T) {
	for m := DayStart; m <= DayEnd; m++ {
		if got := TimeToMinutes(MinutesToTime(m)); got != m {
			t.Fatalf("分钟 %d 往返后得到 %d", m, got)
		}
	}
}

func TestSnapIsIdempotent(t *testing.T) {
	for _, step := range []int{1, 5, 15, 30} {
		for m := -100.0; m <= 1600; m += 0.7 {
			once := Snap(m, step)
			assert.Equal(t, once, Snap(float64(once), step), "step=%d m=%v", step, m)
			assert.GreaterOrEqual(t, once, DayStart)
			assert.LessOrEqual(t, once, DayEnd)
			assert.Zero(t, once%step, "step=%d m=%v 的结果不是步长的整数倍", step, m)
		}
	}
}

func TestSnapRoundsToNearestStep(t *testing.T) {
	tests := []struct {
		in   float64
		step int
		want int
	}{
		{in: 623, step: 5, want: 625},
		{in: 622.4, step: 5, want: 620},
		{in: 7, step: 0, want: 5},
		{in: -3, step: 5, want: 0},
		{in: 1438, step: 5, want: 1435},
		{in: 1438, step: 15, want: 1425},
		{in: 1438.6, step: 1, want: DayEnd},
		{in: math.NaN(), step: 5, want: DayStart},
		{in: math.Inf(1), step: 5, want: 1435},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Snap(tt.in, tt.step), "Snap(%v, %d)", tt.in, tt.step)
	}
}

func TestMinutesToTimeClampsEverything(t *testing.T) {
	inputs := []float64{-1e12, -1, -0.5, 0, 59.9, 1439.99, 1440, 99999, 1e12, math.NaN(), math.Inf(-1), math.Inf(1)}
	for _, in := range inputs {
		tod := MinutesToTimeFloat(in)
		assert.True(t, tod.Valid(), "输入 %v 得到非法时间 %v", in, tod)
	}

	assert.Equal(t, domain.TimeOfDay{Hour: 23, Minute: 59}, MinutesToTime(5000))
	assert.Equal(t, domain.TimeOfDay{}, MinutesToTime(-20))
}

func TestPixelOffsetConversions(t *testing.T) {
	assert.InDelta(t, 623.0, PixelOffsetToMinutes(623, 0, 1), 1e-9)
	assert.InDelta(t, 540+30.0, PixelOffsetToMinutes(60, 540, 2), 1e-9)
	assert.InDelta(t, 60.0, MinutesToPixelOffset(570, 540, 2), 1e-9)
}
