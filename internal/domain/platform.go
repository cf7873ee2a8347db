package domain

import "strings"

// Platform is a coarse OS-family classification derived from an SDK token,
// a destination string, or a simulator runtime identifier.
type Platform string

// Known platform families.
const (
	PlatformUnknown  Platform = ""
	PlatformIOS      Platform = "ios"
	PlatformMacOS    Platform = "macos"
	PlatformTVOS     Platform = "tvos"
	PlatformWatchOS  Platform = "watchos"
	PlatformVisionOS Platform = "visionos"
)

// PlatformFromSDK derives a platform hint from an SDK token such as
// "iphonesimulator", "macosx", or "appletvos". Tokens that match no known
// family fall back to their letters-only lowercase form, or unknown when
// nothing remains.
func PlatformFromSDK(sdk string) Platform {
	return classify(strings.ToLower(strings.TrimSpace(sdk)))
}

// PlatformFromDestination derives a platform hint from a destination
// specifier such as "platform=tvOS Simulator,id=TV-1".
func PlatformFromDestination(dest string) Platform {
	value := destinationField(dest, "platform")
	if value == "" {
		return PlatformUnknown
	}
	value = strings.ToLower(value)
	value = strings.TrimSuffix(value, " simulator")
	return classify(value)
}

// RuntimePlatform derives a platform from a simulator runtime identifier
// such as "com.apple.CoreSimulator.SimRuntime.iOS-17-0".
func RuntimePlatform(runtime string) Platform {
	name := runtimeSuffix(runtime)
	if i := strings.Index(name, "-"); i > 0 {
		name = name[:i]
	}
	return classify(strings.ToLower(name))
}

// RuntimeLabel formats a machine runtime identifier as a human label,
// e.g. "com.apple.CoreSimulator.SimRuntime.iOS-17-0" -> "iOS 17.0".
func RuntimeLabel(runtime string) string {
	name := runtimeSuffix(runtime)
	if name == "" {
		return runtime
	}
	parts := strings.SplitN(name, "-", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + " " + strings.ReplaceAll(parts[1], "-", ".")
}

// Compatible reports whether two platform hints can describe the same
// destination: either side unknown, or both equal.
func (p Platform) Compatible(other Platform) bool {
	return p == PlatformUnknown || other == PlatformUnknown || p == other
}

// SimulatorLabel returns the destination platform label for a simulator of
// this family, e.g. "iOS Simulator".
func (p Platform) SimulatorLabel() string {
	switch p {
	case PlatformIOS:
		return "iOS Simulator"
	case PlatformTVOS:
		return "tvOS Simulator"
	case PlatformWatchOS:
		return "watchOS Simulator"
	case PlatformVisionOS:
		return "visionOS Simulator"
	default:
		return "iOS Simulator"
	}
}

// IsSimulatorSDK reports whether an SDK token targets a simulator.
func IsSimulatorSDK(sdk string) bool {
	return strings.Contains(strings.ToLower(sdk), "simulator")
}

// DeviceTypeLabel classifies a device display name against a small fixed
// vocabulary, defaulting to "Other".
func DeviceTypeLabel(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "iphone"):
		return "iPhone"
	case strings.Contains(lower, "ipad"):
		return "iPad"
	case strings.Contains(lower, "ipod"):
		return "iPod"
	case strings.Contains(lower, "watch"):
		return "Apple Watch"
	case strings.Contains(lower, "tv"):
		return "Apple TV"
	case strings.Contains(lower, "vision"):
		return "Apple Vision"
	default:
		return "Other"
	}
}

// classify maps a lowercase token onto a platform family. Vision is checked
// before iOS because "visionos" contains "ios".
func classify(token string) Platform {
	if token == "" {
		return PlatformUnknown
	}
	switch {
	case strings.Contains(token, "mac"):
		return PlatformMacOS
	case strings.Contains(token, "vision"), strings.Contains(token, "xros"):
		return PlatformVisionOS
	case strings.Contains(token, "watch"):
		return PlatformWatchOS
	case strings.Contains(token, "tvos"), strings.Contains(token, "appletv"):
		return PlatformTVOS
	case strings.Contains(token, "iphone"), strings.Contains(token, "ios"):
		return PlatformIOS
	}
	letters := lettersOnly(token)
	if letters == "" {
		return PlatformUnknown
	}
	return Platform(letters)
}

func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

// destinationField extracts a key=value field from a destination specifier.
func destinationField(dest, key string) string {
	for _, part := range strings.Split(dest, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], key) {
			return strings.TrimSpace(kv[1])
		}
	}
	return ""
}

func runtimeSuffix(runtime string) string {
	if i := strings.LastIndex(runtime, "."); i >= 0 {
		return runtime[i+1:]
	}
	return runtime
}
