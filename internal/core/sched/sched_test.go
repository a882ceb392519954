package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAfterFiresInOrder(t *testing.T) {
	s := New()
	base := time.UnixMilli(0)

	var got []string
	s.After(base, 300*time.Millisecond, func() { got = append(got, "c") })
	s.After(base, 100*time.Millisecond, func() { got = append(got, "a") })
	s.After(base, 200*time.Millisecond, func() { got = append(got, "b") })

	require.Equal(t, 0, s.Run(base.Add(50*time.Millisecond)))
	require.Equal(t, 3, s.Run(base.Add(time.Second)))
	require.Equal(t, []string{"a", "b", "c"}, got)
	require.Equal(t, 0, s.Pending())
}

func TestSameInstantFiresInScheduleOrder(t *testing.T) {
	s := New()
	base := time.UnixMilli(0)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		s.After(base, time.Second, func() { got = append(got, i) })
	}
	s.Run(base.Add(time.Second))
	require.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestCancelPreventsFiring(t *testing.T) {
	s := New()
	base := time.UnixMilli(0)

	fired := false
	h := s.After(base, time.Second, func() { fired = true })
	require.True(t, h.Active())

	h.Cancel()
	h.Cancel() // idempotent

	require.Equal(t, 0, s.Run(base.Add(2*time.Second)))
	require.False(t, fired)
	require.False(t, h.Active())
}

func TestEveryRearms(t *testing.T) {
	s := New()
	base := time.UnixMilli(0)

	count := 0
	h := s.Every(base, time.Second, func() { count++ })

	s.Run(base.Add(3500 * time.Millisecond))
	require.Equal(t, 3, count)

	h.Cancel()
	s.Run(base.Add(10 * time.Second))
	require.Equal(t, 3, count)
}

func TestCallbackMaySchedule(t *testing.T) {
	s := New()
	base := time.UnixMilli(0)

	chained := false
	s.After(base, time.Second, func() {
		s.After(base.Add(time.Second), time.Second, func() { chained = true })
	})

	s.Run(base.Add(time.Second))
	require.False(t, chained)
	s.Run(base.Add(2 * time.Second))
	require.True(t, chained)
}
