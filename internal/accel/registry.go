package accel

import (
	"fmt"
	"sort"
	"sync"
)

// OpenCLName is the registered name of the OpenCL device.
const OpenCLName = "opencl"

// DefaultDevice is opened when no device name is given.
const DefaultDevice = OpenCLName

// Factory opens a device.
type Factory func() (Device, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	Register(EmulatorName, func() (Device, error) { return NewEmulator(0) })
	Register(OpenCLName, disabled(OpenCLName))
}

// Register makes a device available under name, replacing any previous
// registration.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Open opens the named device. An empty name opens DefaultDevice.
func Open(name string) (Device, error) {
	if name == "" {
		name = DefaultDevice
	}

	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}
	return f()
}

// Devices returns the registered device names in sorted order.
func Devices() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func disabled(name string) Factory {
	return func() (Device, error) {
		return nil, fmt.Errorf("%w: %s", ErrBackendDisabled, name)
	}
}
