package timeline

// ZoomLimits 是每分钟像素数的上下限
type ZoomLimits struct {
	Min float64
	Max float64
}

func DefaultZoomLimits() ZoomLimits {
	return ZoomLimits{Min: DefaultMinPxPerMinute, Max: DefaultMaxPxPerMinute}
}

// Viewport 描述可滚动的时间轴视口，内容从 0 点开始，高度为 MinutesPerDay*PxPerMinute
type Viewport struct {
	PxPerMinute float64
	ScrollTop   float64
	Height      float64
	Limits      ZoomLimits
}

func NewViewport(height float64, limits ZoomLimits) *Viewport {
	v := &Viewport{Height: height, Limits: limits}
	v.PxPerMinute = v.ClampZoom(1)
	return v
}

// MinZoom 保证一整天至少能铺满视口
func (v *Viewport) MinZoom() float64 {
	return max(v.Limits.Min, v.Height/MinutesPerDay)
}

func (v *Viewport) ClampZoom(px float64) float64 {
	lo, hi := v.MinZoom(), v.Limits.Max
	if hi < lo {
		hi = lo
	}
	return min(max(px, lo), hi)
}

func (v *Viewport) ContentHeight() float64 {
	return MinutesPerDay * v.PxPerMinute
}

// MinuteAt 返回视口内 screenY 处对应的分钟（未取整）
func (v *Viewport) MinuteAt(screenY float64) float64 {
	return PixelOffsetToMinutes(v.ScrollTop+screenY, DayStart, v.PxPerMinute)
}

// ContentY 把视口坐标转换为日列内容坐标
func (v *Viewport) ContentY(screenY float64) float64 {
	return v.ScrollTop + screenY
}

// ZoomAt 以 anchorY 处的分钟为锚点缩放，缩放后该分钟仍在指针下方
func (v *Viewport) ZoomAt(px float64, anchorY float64) {
	anchorMinute := v.MinuteAt(anchorY)
	v.PxPerMinute = v.ClampZoom(px)
	v.ScrollTop = MinutesToPixelOffset(anchorMinute, DayStart, v.PxPerMinute) - anchorY
	v.clampScroll()
}

func (v *Viewport) ScrollTo(scrollTop float64) {
	v.ScrollTop = scrollTop
	v.clampScroll()
}

func (v *Viewport) clampScroll() {
	maxScroll := max(v.ContentHeight()-v.Height, 0)
	v.ScrollTop = min(max(v.ScrollTop, 0), maxScroll)
}
