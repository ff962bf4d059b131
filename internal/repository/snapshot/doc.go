// Package snapshot persists the diagnostic status of the last controller run.
//
// The FileRepository stores the status as JSON on disk so an operator or an
// external watchdog can see the last commanded levels and the halt reason
// after the process stopped. It never stores the schedule itself.
package snapshot
