package treecodec

import "math"

func doubleBits(d float64) uint64 {
	return math.Float64bits(d)
}

func bitsToDouble(bits uint64) float64 {
	return math.Float64frombits(bits)
}
