// Package bank owns the set of physical outputs of the machine.
//
// A Bank takes exclusive ownership of a hardware.Chip at startup, binds each
// actuator role to one line and exposes a uniform Set operation. Actuators are
// kept in the order they were configured; that order is the application order
// used by the sequencer on every phase.
package bank
