package timeline

import "github.com/sysu-ecnc-dev/livestream-ops/backend/internal/config"

// OptionsFromConfig 用配置覆盖默认的吸附步长和时长，非正数的配置项保留默认值
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg.Timeline.SnapStep > 0 {
		opts.SnapStep = cfg.Timeline.SnapStep
	}
	if cfg.Timeline.MinDuration > 0 {
		opts.MinDuration = cfg.Timeline.MinDuration
	}
	if cfg.Timeline.DefaultDuration > 0 {
		opts.CreateDuration = cfg.Timeline.DefaultDuration
	}
	return opts
}

func ZoomLimitsFromConfig(cfg *config.Config) ZoomLimits {
	limits := DefaultZoomLimits()
	if cfg.Timeline.MinPxPerMinute > 0 {
		limits.Min = cfg.Timeline.MinPxPerMinute
	}
	if cfg.Timeline.MaxPxPerMinute > limits.Min {
		limits.Max = cfg.Timeline.MaxPxPerMinute
	}
	return limits
}
