package engine

import "math"

// Float is the sample type for a whole engine instance. Pick float32 or
// float64 once at instantiation; nothing in the engine mixes precisions.
type Float interface {
	~float32 | ~float64
}

func noteToFreq[F Float](key uint8) F {
	return F(440 * math.Pow(2, (float64(key)-69)/12))
}

func pow2[F Float](x F) F {
	return F(math.Pow(2, float64(x)))
}

func sin[F Float](x F) F {
	return F(math.Sin(float64(x)))
}

func clamp[F Float](v, min, max F) F {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
