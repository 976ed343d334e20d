package model

// Analytics event types accepted from the tracker and the browser beacon.
const (
	AnalyticsPageView   = "page_view"
	AnalyticsClick      = "click"
	AnalyticsDownload   = "download"
	AnalyticsFormSubmit = "form_submit"
	AnalyticsVideoPlay  = "video_play"
	AnalyticsCustom     = "custom"
)

// IsValidAnalyticsEvent reports whether t is an accepted event type.
func IsValidAnalyticsEvent(t string) bool {
	switch t {
	case AnalyticsPageView, AnalyticsClick, AnalyticsDownload,
		AnalyticsFormSubmit, AnalyticsVideoPlay, AnalyticsCustom:
		return true
	}
	return false
}

// Device types derived from the User-Agent.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)
