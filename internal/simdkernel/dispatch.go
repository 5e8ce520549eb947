// Package simdkernel implements batch/vectorized cell kernels: bulk
// conversions, coordinate transforms, reductions and filters operating on
// whole Record slices at once rather than cell by cell, with a runtime
// CPU-feature probe selecting the widest available implementation in the
// style of golang.org/x/sys/cpu-based dispatch.
package simdkernel

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// Level names the kernel width actually selected at runtime.
type Level int

const (
	LevelScalar Level = iota
	LevelSSE2
	LevelSSE41
	LevelAVX2
)

func (l Level) String() string {
	switch l {
		case LevelAVX2:
			return "avx2"
		case LevelSSE41:
			return "sse41"
		case LevelSSE2:
			return "sse2"
		default:
			return "scalar"
	}
}

var (
	probeOnce sync.Once
	probed Level
)

// probe inspects golang.org/x/sys/cpu once and caches the widest level this
// process can use.
// Go has no compiler intrinsic for emitting actual AVX2/SSE instructions
// from this package, so every Level, AVX2 included, executes the same
// portable Go loop; Level only changes the batch width used for loop
// unrolling and is exposed through SelectedLevel to report which tier was
// selected, even though the arithmetic itself is scalar Go.
func probe() Level {
	probeOnce.Do(func() {
		switch {
			case cpu.X86.HasAVX2:
				probed = LevelAVX2
			case cpu.X86.HasSSE41:
				probed = LevelSSE41
			case cpu.X86.HasSSE2:
				probed = LevelSSE2
			default:
				probed = LevelScalar
		}
	})
	return probed
}

// SelectedLevel returns the cached dispatch level for this process.
func SelectedLevel() Level { return probe() }

// unrollWidth returns the loop-unroll factor for the selected level, used
// by the reduction kernels below to process several elements per
// iteration before the scalar remainder loop.
func unrollWidth(l Level) int {
	switch l {
		case LevelAVX2:
			return 4
		case LevelSSE41, LevelSSE2:
			return 2
		default:
			return 1
	}
}
