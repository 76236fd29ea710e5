package imu

// StandardGravity is the conversion factor between g and m/s².
const StandardGravity = 9.81

// Unit identifies the unit of an acceleration value.
type Unit int

const (
	UnitG Unit = iota // multiples of standard gravity
	UnitMPS2          // metres per second squared
)

func (u Unit) String() string {
	if u == UnitMPS2 {
		return "mps2"
	}
	return "g"
}

// Sample is one timestamped accelerometer reading. Gyro values ride along
// from the recorder but the numeric pipeline never looks at them.
type Sample struct {
	T    float64 `json:"t"` // seconds elapsed since start of recording
	Acc  Vec3    `json:"acc"`
	Gyro Vec3    `json:"gyro,omitempty"`
}

// SampleSeries is an ordered sequence of samples with non-decreasing T.
type SampleSeries []Sample

// Duration returns the time spanned by the series in seconds.
func (s SampleSeries) Duration() float64 {
	if len(s) < 2 {
		return 0
	}
	return s[len(s)-1].T - s[0].T
}

// AccPoints copies the acceleration vectors out of the series.
func (s SampleSeries) AccPoints() []Vec3 {
	pts := make([]Vec3, len(s))
	for i, smp := range s {
		pts[i] = smp.Acc
	}
	return pts
}

// Reading is a single raw accelerometer+gyro sample in sensor counts,
// as delivered by the MPU-9250 source.
type Reading struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// Acc converts the raw accelerometer counts to a float vector.
func (r Reading) Acc() Vec3 {
	return Vec3{X: float64(r.Ax), Y: float64(r.Ay), Z: float64(r.Az)}
}

// Gyro converts the raw gyro counts to a float vector.
func (r Reading) Gyro() Vec3 {
	return Vec3{X: float64(r.Gx), Y: float64(r.Gy), Z: float64(r.Gz)}
}
