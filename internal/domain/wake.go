package domain

// WakeReason tells a work cycle why the image is running.
type WakeReason int

const (
	WakeUnknown WakeReason = iota
	WakeColdBoot
	WakeTimer
)

func (w WakeReason) String() string {
	switch w {
	case WakeColdBoot:
		return "cold-boot"
	case WakeTimer:
		return "timer"
	default:
		return "unknown"
	}
}
