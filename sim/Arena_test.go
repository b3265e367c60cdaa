package sim

import (
	"bytes"
	"context"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/navdqn/environment"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

var _ environment.Collaborator = (*Arena)(nil)

func newArena(t *testing.T, c Config, start r2.Vec) (*Arena,
	*environment.Sensors) {
	a, err := c.Create(start, zerolog.Nop())
	require.NoError(t, err)

	s := environment.NewSensors()
	a.Attach(s)
	return a, s
}

func TestAttachPublishes(t *testing.T) {
	_, s := newArena(t, DefaultConfig(), r2.Vec{X: -1.5, Y: 0})

	scan, ok := s.Scan.Latest()
	require.True(t, ok)
	require.Len(t, scan.Ranges, 360)

	pose, ok := s.Pose.Latest()
	require.True(t, ok)
	require.InDelta(t, -1.5, pose.Position.X, 1e-9)
	require.InDelta(t, 0.0, pose.Yaw(), 1e-9)
}

func TestScan(t *testing.T) {
	a, s := newArena(t, DefaultConfig(), r2.Vec{})
	require.NoError(t, a.Spawn(context.Background(), "goal",
		r2.Vec{X: 0.5, Y: 1}))
	require.NoError(t, a.Teleport(context.Background(), RobotEntity,
		r2.Vec{Y: 1}))

	scan, _ := s.Scan.Latest()

	// Pillars ahead and behind, the goal marker does not block the
	// beam ahead
	require.InDelta(t, 0.85, scan.Ranges[0], 1e-6)
	require.InDelta(t, 0.85, scan.Ranges[180], 1e-6)

	// Walls to the left and right
	require.InDelta(t, 1.0, scan.Ranges[90], 1e-6)
	require.InDelta(t, 3.0, scan.Ranges[270], 1e-6)
}

func TestScanOutOfRange(t *testing.T) {
	c := DefaultConfig()
	c.MaxRange = 1.0
	_, s := newArena(t, c, r2.Vec{})

	scan, _ := s.Scan.Latest()
	for _, r := range scan.Ranges {
		require.True(t, math.IsInf(r, 1))
	}
}

func TestActuate(t *testing.T) {
	c := DefaultConfig()
	a, s := newArena(t, c, r2.Vec{})

	err := a.Actuate(context.Background(), environment.Twist{Linear: 0.12})
	require.NoError(t, err)

	pose, _ := s.Pose.Latest()
	travel := 0.12 * c.TimeStep * float64(c.SubSteps)
	require.InDelta(t, travel, pose.Position.X, 1e-3)
	require.InDelta(t, 0.0, pose.Position.Y, 1e-6)
	require.InDelta(t, float64(c.SubSteps)*c.TimeStep, a.Clock().Seconds(),
		1e-6)

	err = a.Actuate(context.Background(), environment.Twist{Angular: 1.0})
	require.NoError(t, err)

	pose, _ = s.Pose.Latest()
	require.InDelta(t, c.TimeStep*float64(c.SubSteps), pose.Yaw(), 1e-3)
	require.InDelta(t, 1.0, pose.AngularVelocity, 1e-6)
}

func TestCollision(t *testing.T) {
	c := DefaultConfig()
	a, s := newArena(t, c, r2.Vec{X: 1.6, Y: 0})

	for i := 0; i < 20; i++ {
		err := a.Actuate(context.Background(),
			environment.Twist{Linear: 1.0})
		require.NoError(t, err)
	}

	require.Greater(t, a.Collisions(), 0)

	pose, _ := s.Pose.Latest()
	require.Less(t, pose.Position.X, c.HalfExtent-c.RobotRadius+0.02)

	scan, _ := s.Scan.Latest()
	require.Less(t, scan.Ranges[0], 0.13)
}

func TestEntityLifecycle(t *testing.T) {
	a, _ := newArena(t, DefaultConfig(), r2.Vec{})
	ctx := context.Background()

	exists, err := a.Exists(ctx, "goal")
	require.NoError(t, err)
	require.False(t, exists)

	require.ErrorIs(t, a.Delete(ctx, "goal"), environment.ErrNotFound)
	require.ErrorIs(t, a.Teleport(ctx, "goal", r2.Vec{}),
		environment.ErrNotFound)

	require.NoError(t, a.Spawn(ctx, "goal", r2.Vec{X: 1.5, Y: 1.5}))
	require.ErrorIs(t, a.Spawn(ctx, "goal", r2.Vec{}), environment.ErrExists)

	exists, err = a.Exists(ctx, "goal")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, a.Delete(ctx, "goal"))
	exists, _ = a.Exists(ctx, "goal")
	require.False(t, exists)

	require.ErrorIs(t, a.Spawn(ctx, RobotEntity, r2.Vec{}),
		environment.ErrExists)
}

func TestTeleportStopsRobot(t *testing.T) {
	a, s := newArena(t, DefaultConfig(), r2.Vec{})
	ctx := context.Background()

	require.NoError(t, a.Actuate(ctx, environment.Twist{Angular: 2.5}))
	require.NoError(t, a.Teleport(ctx, RobotEntity, r2.Vec{X: -1.5}))

	pos, angle, err := a.Pose()
	require.NoError(t, err)
	require.InDelta(t, -1.5, pos.X, 1e-9)
	require.Equal(t, 0.0, angle)

	pose, _ := s.Pose.Latest()
	require.InDelta(t, -1.5, pose.Position.X, 1e-9)
	require.Equal(t, 0.0, pose.AngularVelocity)
}

func TestCancelledContext(t *testing.T) {
	a, _ := newArena(t, DefaultConfig(), r2.Vec{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, a.Actuate(ctx, environment.Twist{}), context.Canceled)
	_, err := a.Exists(ctx, "goal")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun(t *testing.T) {
	a, s := newArena(t, DefaultConfig(), r2.Vec{})

	ctx, cancel := context.WithTimeout(context.Background(),
		100*time.Millisecond)
	defer cancel()

	done := make(chan error)
	go func() { done <- a.Run(ctx, 200) }()

	// Let the arena start its clock before commanding the robot
	require.Eventually(t, func() bool { return a.Clock() > 0 },
		time.Second, time.Millisecond)
	require.NoError(t, a.Actuate(context.Background(),
		environment.Twist{Linear: 0.5}))

	require.ErrorIs(t, <-done, context.DeadlineExceeded)

	pose, _ := s.Pose.Latest()
	require.Greater(t, pose.Position.X, 0.0)

	require.Error(t, a.Run(context.Background(), 0))
}

func TestRender(t *testing.T) {
	a, _ := newArena(t, DefaultConfig(), r2.Vec{X: -1.5})
	require.NoError(t, a.Spawn(context.Background(), "goal",
		r2.Vec{X: 0.5, Y: 0.5}))

	img, err := a.Render(50, true)
	require.NoError(t, err)
	require.Equal(t, 200, img.Bounds().Dx())
	require.Equal(t, 200, img.Bounds().Dy())

	var buf bytes.Buffer
	require.NoError(t, a.EncodePNG(&buf, 50, false))
	_, err = png.Decode(&buf)
	require.NoError(t, err)

	_, err = a.Render(0, false)
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	c := DefaultConfig()
	c.Beams = 0
	require.Error(t, c.Validate())

	_, err := DefaultConfig().Create(r2.Vec{X: 3}, zerolog.Nop())
	require.Error(t, err)
}
