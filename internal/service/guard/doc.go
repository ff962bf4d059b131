// Package guard keeps a single controller process in charge of the outputs.
package guard
