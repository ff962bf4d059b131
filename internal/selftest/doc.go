// Package selftest contains hardware exercises that run independently of the
// sequencer: a real-time-clock set/read-back check and a multiply-accumulate
// benchmark. Neither has an ordering dependency on the control loop.
package selftest
