package timeline

import (
	"math"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

const (
	// MinutesPerDay 是一天的分钟数，时间轴覆盖 [0, MinutesPerDay)
	MinutesPerDay = 1440

	// DayStart 和 DayEnd 是可表示的最小和最大分钟
	DayStart = 0
	DayEnd   = MinutesPerDay - 1

	DefaultSnapStep       = 5
	DefaultMinDuration    = 5
	DefaultCreateDuration = 60
	DefaultMinPxPerMinute = 0.75
	DefaultMaxPxPerMinute = 6.0
)

func TimeToMinutes(t domain.TimeOfDay) int {
	return t.Minutes()
}

// MinutesToTime 先把 m 限制在 [0, 1439] 再拆分，保证不会产生非法的时分
func MinutesToTime(m int) domain.TimeOfDay {
	m = ClampMinute(m)
	return domain.TimeOfDay{Hour: m / 60, Minute: m % 60}
}

// MinutesToTimeFloat 用于指针换算得到的浮点分钟，NaN 视为 0
func MinutesToTimeFloat(m float64) domain.TimeOfDay {
	return MinutesToTime(floorMinute(m))
}

func ClampMinute(m int) int {
	return min(max(m, DayStart), DayEnd)
}

// Snap 取最近的 step 整数倍，结果始终在一天之内；step <= 0 时使用默认步长。
// 超出当天时取不超过 DayEnd 的最大整数倍，保证结果仍是 step 的倍数
func Snap(minutes float64, step int) int {
	if step <= 0 {
		step = DefaultSnapStep
	}
	last := DayEnd - DayEnd%step
	if math.IsNaN(minutes) {
		return DayStart
	}
	if math.IsInf(minutes, 1) {
		return last
	}
	if math.IsInf(minutes, -1) {
		return DayStart
	}
	snapped := math.Round(minutes/float64(step)) * float64(step)
	return min(ClampMinute(floorMinute(snapped)), last)
}

// PixelOffsetToMinutes 把相对于日列原点的像素偏移换算为分钟
func PixelOffsetToMinutes(pixelY float64, originMinute int, pxPerMinute float64) float64 {
	if pxPerMinute <= 0 {
		pxPerMinute = DefaultMinPxPerMinute
	}
	return float64(originMinute) + pixelY/pxPerMinute
}

// MinutesToPixelOffset 是 PixelOffsetToMinutes 的逆变换，用于渲染
func MinutesToPixelOffset(minutes float64, originMinute int, pxPerMinute float64) float64 {
	return (minutes - float64(originMinute)) * pxPerMinute
}

func floorMinute(m float64) int {
	switch {
	case math.IsNaN(m):
		return DayStart
	case m <= math.MinInt32:
		return DayStart
	case m >= math.MaxInt32:
		return DayEnd
	}
	return int(math.Floor(m))
}
