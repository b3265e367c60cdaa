package environment

import (
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
)

// ScanFrame is a single sweep of a planar range sensor. Ranges[0] is
// the reading straight ahead and readings proceed counter-clockwise at
// equal angular increments. A reading with no return is +Inf.
type ScanFrame struct {
	Ranges []float64
	Stamp  time.Time
}

// PoseFrame is a single odometry reading of the robot
type PoseFrame struct {
	Position        r2.Vec
	Orientation     quat.Number
	AngularVelocity float64
	Stamp           time.Time
}

// Yaw returns the heading of the robot in radians, extracted from the
// orientation quaternion.
func (p PoseFrame) Yaw() float64 {
	q := p.Orientation
	sinYaw := 2 * (q.Real*q.Kmag + q.Imag*q.Jmag)
	cosYaw := 1 - 2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag)
	return math.Atan2(sinYaw, cosYaw)
}

// YawQuat returns the quaternion of a rotation by yaw radians about
// the vertical axis.
func YawQuat(yaw float64) quat.Number {
	return quat.Number{
		Real: math.Cos(yaw / 2),
		Kmag: math.Sin(yaw / 2),
	}
}

// Mailbox is a single-slot store for the most recent value published
// to it. Publishing overwrites the previous value; there is no
// queueing, so a reader always sees the latest value or nothing.
type Mailbox[T any] struct {
	mu    sync.RWMutex
	value T
	set   bool
}

// Put replaces the value in the Mailbox
func (m *Mailbox[T]) Put(value T) {
	m.mu.Lock()
	m.value = value
	m.set = true
	m.mu.Unlock()
}

// Latest returns the most recent value and whether any value has ever
// been published
func (m *Mailbox[T]) Latest() (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value, m.set
}

// Sensors holds the latest scan and pose frames from a Collaborator.
// Publishers hand over ownership of the slices in the frames they put.
type Sensors struct {
	Scan Mailbox[ScanFrame]
	Pose Mailbox[PoseFrame]
}

// NewSensors returns empty Sensors
func NewSensors() *Sensors {
	return &Sensors{}
}
