// Package periph drives Linux GPIO lines through periph.io.
package periph
