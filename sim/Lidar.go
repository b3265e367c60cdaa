package sim

import (
	"math"

	"github.com/ByteArena/box2d"
)

// scanLocked casts Beams rays from the centre of the robot. Beam 0
// points along the heading of the robot and beams proceed
// counter-clockwise. Beams that hit nothing within MaxRange read
// +Inf. Sensor fixtures and the robot itself are transparent.
func (a *Arena) scanLocked() []float64 {
	ranges := make([]float64, a.config.Beams)

	origin := a.robot.GetPosition()
	heading := a.robot.GetAngle()
	increment := 2 * math.Pi / float64(a.config.Beams)

	for i := range ranges {
		angle := heading + float64(i)*increment
		end := box2d.MakeB2Vec2(
			origin.X+a.config.MaxRange*math.Cos(angle),
			origin.Y+a.config.MaxRange*math.Sin(angle),
		)

		closest := math.Inf(1)
		callback := func(fixture *box2d.B2Fixture, point, normal box2d.B2Vec2,
			fraction float64) float64 {
			if fixture.IsSensor() || fixture.GetBody() == a.robot {
				return -1
			}
			closest = math.Min(closest, fraction*a.config.MaxRange)

			// Clip the ray to this hit so only closer fixtures are
			// reported afterwards
			return fraction
		}
		a.world.RayCast(callback, origin, end)

		ranges[i] = closest
	}

	return ranges
}
