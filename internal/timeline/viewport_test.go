package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewportZoomKeepsAnchoredMinute(t *testing.T) {
	v := NewViewport(600, DefaultZoomLimits())
	v.PxPerMinute = 1
	v.ScrollTo(480)

	anchorY := 20.0
	assert.InDelta(t, 500.0, v.MinuteAt(anchorY), 1e-9)

	v.ZoomAt(2, anchorY)

	assert.Equal(t, 2.0, v.PxPerMinute)
	assert.InDelta(t, 980.0, v.ScrollTop, 1e-9)
	assert.InDelta(t, 500.0, v.MinuteAt(anchorY), 1e-9)
}

func TestViewportZoomBounds(t *testing.T) {
	v := NewViewport(600, DefaultZoomLimits())
	assert.Equal(t, 0.75, v.MinZoom())

	v.ZoomAt(100, 0)
	assert.Equal(t, DefaultMaxPxPerMinute, v.PxPerMinute)

	v.ZoomAt(0.1, 0)
	assert.Equal(t, 0.75, v.PxPerMinute)

	// 视口比一天还高时，最小缩放要能铺满视口
	tall := NewViewport(2880, DefaultZoomLimits())
	assert.Equal(t, 2.0, tall.MinZoom())
	tall.ZoomAt(1, 0)
	assert.Equal(t, 2.0, tall.PxPerMinute)
}

func TestViewportScrollStaysInsideContent(t *testing.T) {
	v := NewViewport(600, DefaultZoomLimits())
	v.PxPerMinute = 1

	v.ScrollTo(-50)
	assert.Equal(t, 0.0, v.ScrollTop)

	v.ScrollTo(5000)
	assert.Equal(t, 1440.0-600, v.ScrollTop)

	// 缩小到锚点无法保持时，滚动位置被限制在内容范围内
	v.ZoomAt(0.75, 0)
	assert.Equal(t, 1440*0.75-600, v.ScrollTop)
}
