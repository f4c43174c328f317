//go:build !linux
// +build !linux

package window

import (
	"fmt"
	"runtime"
)

type stubEnumerator struct{}

// NewEnumerator returns the platform window enumerator
func NewEnumerator() Enumerator {
	return &stubEnumerator{}
}

func (e *stubEnumerator) List() ([]Info, error) {
	return nil, fmt.Errorf("window enumeration not supported on %s", runtime.GOOS)
}

func (e *stubEnumerator) ActiveDesktop() (int, error) {
	return 0, fmt.Errorf("desktop query not supported on %s", runtime.GOOS)
}

func (e *stubEnumerator) ForegroundApp() (string, error) {
	return "", fmt.Errorf("foreground query not supported on %s", runtime.GOOS)
}
