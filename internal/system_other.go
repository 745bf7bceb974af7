//go:build !(aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris || windows)

package internal

// platformVersion returns the string to use for the System platformVersion
// slot. There is no version information available on this platform.
func platformVersion() string {
	return ""
}
