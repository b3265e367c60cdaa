package environment

import (
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMailboxLatest(t *testing.T) {
	var m Mailbox[ScanFrame]

	_, ok := m.Latest()
	require.False(t, ok)

	m.Put(ScanFrame{Ranges: []float64{1}})
	m.Put(ScanFrame{Ranges: []float64{2}})

	frame, ok := m.Latest()
	require.True(t, ok)
	require.Equal(t, []float64{2}, frame.Ranges)
}

func TestMailboxConcurrent(t *testing.T) {
	s := NewSensors()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Pose.Put(PoseFrame{AngularVelocity: float64(i)})
				s.Pose.Latest()
			}
		}(i)
	}
	wg.Wait()

	_, ok := s.Pose.Latest()
	require.True(t, ok)
}

func TestYaw(t *testing.T) {
	for _, yaw := range []float64{0, 0.3, math.Pi / 2, -2.5, 3.1} {
		p := PoseFrame{Orientation: YawQuat(yaw)}
		require.InDelta(t, yaw, p.Yaw(), 1e-9)
	}
}

func TestDurationJSON(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"1.5s"`, string(b))

	var got Duration
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, d, got)

	require.NoError(t, json.Unmarshal([]byte("1000"), &got))
	require.Equal(t, Duration(time.Microsecond), got)

	require.Error(t, json.Unmarshal([]byte(`"soon"`), &got))
}
