// Package accel defines the contract of the set-membership kernel and the
// devices that execute it.
//
// A launch carries the raw corpus buffer, two offset tables locating every
// set's payload inside it, the probe values and a write-only hit table with
// one cell per set. The device runs one work item per set; work item i
// compares payload elements data[Begin[i]:End[i]] against every probe value
// and stores 1 in Hits[i] if any pair is closer than Epsilon, else 0. The
// host sums the hit table.
//
// Devices are looked up by name with Open. The emulator is always
// available. Devices whose runtime is not compiled into this binary report
// ErrBackendDisabled.
package accel
