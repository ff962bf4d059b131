// Package schedule contains the duty-cycle model driven by the sequencer.
//
// A Schedule is an ordered, cyclic list of Phases. Each Phase commands a level
// for every actuator and holds it for a fixed duration. Status captures the
// diagnostic state of a running sequencer.
package schedule
