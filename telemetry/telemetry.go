// Package telemetry は1ティック分の車両状態を表します。
package telemetry

// Telemetry is the snapshot the host hands over once per physics tick.
// Distances are measured to the track edges and become negative outside.
type Telemetry struct {
	SpeedX    float32
	SpeedY    float32
	ToRight   float32
	ToLeft    float32
	Path      float32
	NextPath  float32
	// 累積ダメージ
	Damage    float32
	// 走行距離
	DistRaced float32
}

func (t Telemetry) OffTrack() bool {
	return t.ToRight < 0 || t.ToLeft < 0
}

// NextPathOf returns the curvature ratio of the next segment.
// A straight segment has radius 0 and yields 0. Left curves are positive.
func NextPathOf(radius, radiusRight, radiusLeft float32) float32 {
	if radius == 0 {
		return 0
	}
	return (radiusRight - radiusLeft) / radius
}
