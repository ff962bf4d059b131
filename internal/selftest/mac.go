package selftest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/laminator/internal/logger"
)

// Coefficients is the fixed table the benchmark multiplies against.
var Coefficients = [16]int32{ //nolint:gochecknoglobals // Read-only reference table.
	3, -7, 12, 25, 40, 58, 71, 80, 80, 71, 58, 40, 25, 12, -7, 3,
}

const (
	// DefaultMACIterations is the number of dot products computed by default.
	DefaultMACIterations = 10_000
	// DefaultMACThreshold is the result above which a dot product is logged.
	DefaultMACThreshold = 120_000
	// sampleRange bounds the synthetic input samples to 0..255.
	sampleRange = 256
)

// errIterationsRequired is returned for non-positive iteration counts.
var errIterationsRequired = errors.New("iterations must be positive")

// Multiplier is a hardware multiply primitive.
type Multiplier interface {
	Mul(a, b int32) int64
}

// SoftMultiplier multiplies on the CPU.
type SoftMultiplier struct{}

// Mul returns a*b widened to 64 bits.
func (SoftMultiplier) Mul(a, b int32) int64 {
	return int64(a) * int64(b)
}

// MACOptions configures the benchmark.
type MACOptions struct {
	// Iterations is the number of dot products to compute.
	Iterations int
	// Threshold is the value above which a result is logged.
	Threshold int64
}

// MACReport summarizes a benchmark run.
type MACReport struct {
	Iterations int
	Exceeded   int
	Max        int64
	Last       int64
	Elapsed    time.Duration
}

// DotProduct multiplies samples by Coefficients and sums the products.
func DotProduct(mul Multiplier, samples *[16]int32) int64 {
	var acc int64
	for i, c := range Coefficients {
		acc += mul.Mul(c, samples[i])
	}

	return acc
}

// RunMAC computes opts.Iterations dot products over a sliding synthetic sample
// window and logs every result above opts.Threshold.
func RunMAC(ctx context.Context, mul Multiplier, opts MACOptions) (*MACReport, error) {
	if opts.Iterations <= 0 {
		return nil, errIterationsRequired
	}

	ctx = logger.WithName(ctx, "mac-bench")

	var (
		report  = &MACReport{Iterations: opts.Iterations}
		samples [16]int32
		start   = time.Now()
	)

	for iteration := range opts.Iterations {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("benchmark interrupted at iteration %d: %w", iteration, err)
		}

		for i := range samples {
			samples[i] = int32((iteration + i) % sampleRange)
		}

		result := DotProduct(mul, &samples)

		report.Last = result
		if iteration == 0 || result > report.Max {
			report.Max = result
		}

		if result > opts.Threshold {
			report.Exceeded++

			logger.InfoKV(ctx, "Result above threshold", "iteration", iteration, "result", result)
		}
	}

	report.Elapsed = time.Since(start)

	logger.InfoKV(ctx, "Benchmark finished",
		"iterations", report.Iterations,
		"exceeded", report.Exceeded,
		"max", report.Max,
		"elapsed", report.Elapsed.String(),
	)

	return report, nil
}
