package ql

// Target is the one-step return r + γ·max Q(s').
func Target(reward, nextMaxQ, discountRate float32) float32 {
	return reward + discountRate*nextMaxQ
}

// UpdateQ returns (1-α)·q + α·(r + γ·maxQ(s')).
func UpdateQ(q, nextMaxQ, reward, lr, discountRate float32) float32 {
	qRatio := 1.0 - lr
	return (qRatio * q) + (lr * Target(reward, nextMaxQ, discountRate))
}
