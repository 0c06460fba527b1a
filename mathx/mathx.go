package mathx

// Clip は x を [lo, hi] に収めます。
func Clip(x, lo, hi float32) float32 {
	if x > hi {
		return hi
	}
	if x < lo {
		return lo
	}
	return x
}
