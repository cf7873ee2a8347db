package domain

import "testing"

func TestPlatformFromSDK(t *testing.T) {
	cases := []struct {
		sdk  string
		want Platform
	}{
		{"iphonesimulator", PlatformIOS},
		{"iphoneos", PlatformIOS},
		{"macosx", PlatformMacOS},
		{"appletvsimulator", PlatformTVOS},
		{"appletvos", PlatformTVOS},
		{"watchsimulator", PlatformWatchOS},
		{"xrsimulator", Platform("xrsimulator")},
		{"xros", PlatformVisionOS},
		{"visionos", PlatformVisionOS},
		{"", PlatformUnknown},
		{"   ", PlatformUnknown},
		{"driverkit22.4", Platform("driverkit")},
	}
	for _, tc := range cases {
		if got := PlatformFromSDK(tc.sdk); got != tc.want {
			t.Errorf("PlatformFromSDK(%q) = %q, want %q", tc.sdk, got, tc.want)
		}
	}
}

func TestPlatformFromDestination(t *testing.T) {
	cases := []struct {
		dest string
		want Platform
	}{
		{"platform=iOS Simulator,id=ABC", PlatformIOS},
		{"platform=tvOS Simulator,id=TV-1", PlatformTVOS},
		{"platform=macOS", PlatformMacOS},
		{"id=ABC", PlatformUnknown},
		{"", PlatformUnknown},
		{"platform=watchOS Simulator,name=Apple Watch", PlatformWatchOS},
	}
	for _, tc := range cases {
		if got := PlatformFromDestination(tc.dest); got != tc.want {
			t.Errorf("PlatformFromDestination(%q) = %q, want %q", tc.dest, got, tc.want)
		}
	}
}

func TestRuntimePlatformAndLabel(t *testing.T) {
	if got := RuntimePlatform("com.apple.CoreSimulator.SimRuntime.iOS-17-0"); got != PlatformIOS {
		t.Fatalf("RuntimePlatform iOS = %q", got)
	}
	if got := RuntimePlatform("com.apple.CoreSimulator.SimRuntime.tvOS-17-0"); got != PlatformTVOS {
		t.Fatalf("RuntimePlatform tvOS = %q", got)
	}
	if got := RuntimeLabel("com.apple.CoreSimulator.SimRuntime.iOS-17-0"); got != "iOS 17.0" {
		t.Fatalf("RuntimeLabel = %q, want %q", got, "iOS 17.0")
	}
	if got := RuntimeLabel("iOS-16-4"); got != "iOS 16.4" {
		t.Fatalf("RuntimeLabel short form = %q", got)
	}
}

func TestCompatible(t *testing.T) {
	cases := []struct {
		a, b Platform
		want bool
	}{
		{PlatformIOS, PlatformIOS, true},
		{PlatformIOS, PlatformUnknown, true},
		{PlatformUnknown, PlatformTVOS, true},
		{PlatformIOS, PlatformTVOS, false},
		{PlatformMacOS, PlatformIOS, false},
	}
	for _, tc := range cases {
		if got := tc.a.Compatible(tc.b); got != tc.want {
			t.Errorf("%q.Compatible(%q) = %t, want %t", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSimulatorLabel(t *testing.T) {
	if got := PlatformTVOS.SimulatorLabel(); got != "tvOS Simulator" {
		t.Fatalf("tvOS label = %q", got)
	}
	// Unknown defaults to iOS.
	if got := PlatformUnknown.SimulatorLabel(); got != "iOS Simulator" {
		t.Fatalf("default label = %q", got)
	}
}

func TestIsSimulatorSDK(t *testing.T) {
	if !IsSimulatorSDK("iphonesimulator") {
		t.Fatal("iphonesimulator should be a simulator SDK")
	}
	if IsSimulatorSDK("iphoneos") {
		t.Fatal("iphoneos is a device SDK")
	}
}

func TestDeviceTypeLabel(t *testing.T) {
	cases := map[string]string{
		"iPhone 15 Pro":            "iPhone",
		"iPad Air (5th gen)":       "iPad",
		"Apple Watch Ultra 2":      "Apple Watch",
		"Apple TV 4K":              "Apple TV",
		"Apple Vision Pro":         "Apple Vision",
		"iPod touch (7th gen)":     "iPod",
		"Weird Experimental Thing": "Other",
	}
	for name, want := range cases {
		if got := DeviceTypeLabel(name); got != want {
			t.Errorf("DeviceTypeLabel(%q) = %q, want %q", name, got, want)
		}
	}
}
