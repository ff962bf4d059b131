// Package actuator contains the core value types for digital outputs.
//
// It defines Role (the stable identity of an output such as "pump_main") and
// Level (the logical on/off value commanded to it).
package actuator
