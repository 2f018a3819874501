package robotble

import "runtime"

// Platform identifies the host the dashboard runs on.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWeb     Platform = "web"
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
)

// CurrentPlatform returns the platform the program was built for.
func CurrentPlatform() Platform {
	if runtime.GOOS == "js" {
		return PlatformWeb
	}
	return Platform(runtime.GOOS)
}

// IsNative reports whether the platform uses a native Bluetooth stack.
func (p Platform) IsNative() bool {
	return p != PlatformWeb
}
