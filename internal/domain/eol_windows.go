//go:build windows

package domain

// EOL is the native line terminator.
const EOL = "\r\n"
