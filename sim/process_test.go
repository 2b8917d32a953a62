package sim

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_SleepChain_AdvancesClock(t *testing.T) {
	// GIVEN a process that sleeps 2 then 3 minutes
	s := NewSimulator()
	var times []float64
	p := s.Spawn("sleeper", func(p *Process) {
		times = append(times, p.Now())
		p.Sleep(2, func() {
			times = append(times, p.Now())
			p.Sleep(3, func() {
				times = append(times, p.Now())
			})
		})
	})

	// WHEN run
	require.NoError(t, s.RunUntil(100))

	// THEN each step runs at the expected time and the process terminates
	assert.Equal(t, []float64{0, 2, 5}, times)
	assert.Equal(t, StateTerminated, p.State())
}

func TestProcess_SuspendedState_ReportsReason(t *testing.T) {
	s := NewSimulator()
	p := s.Spawn("waiter", func(p *Process) {
		p.Sleep(10, func() {})
	})

	require.NoError(t, s.RunUntil(5))

	assert.Equal(t, StateSuspended, p.State())
	assert.Equal(t, WaitTimeout, p.WaitingOn())
}

func TestGroup_Wait_ResumesAfterLastMember(t *testing.T) {
	// GIVEN a parent that spawns children sleeping 1, 2 and 3 minutes
	s := NewSimulator()
	joinedAt := -1.0
	s.Spawn("parent", func(p *Process) {
		g := NewGroup(s)
		for i := 1; i <= 3; i++ {
			d := float64(i)
			g.Go(fmt.Sprintf("child-%d", i), func(c *Process) {
				c.Sleep(d, func() {})
			})
		}
		g.Wait(p, func() { joinedAt = p.Now() })
	})

	// WHEN run
	require.NoError(t, s.RunUntil(10))

	// THEN the parent resumes when the slowest child finishes
	assert.Equal(t, 3.0, joinedAt)
}

func TestGroup_MembersAddedByMembers_ExtendTheJoin(t *testing.T) {
	// GIVEN a child that adds a grandchild to the group before it exits
	s := NewSimulator()
	joinedAt := -1.0
	s.Spawn("parent", func(p *Process) {
		g := NewGroup(s)
		g.Go("child", func(c *Process) {
			c.Sleep(1, func() {
				g.Go("grandchild", func(gc *Process) {
					gc.Sleep(4, func() {})
				})
			})
		})
		g.Wait(p, func() { joinedAt = p.Now() })
	})

	// WHEN run
	require.NoError(t, s.RunUntil(10))

	// THEN the join waits for the grandchild too
	assert.Equal(t, 5.0, joinedAt)
}

func TestGroup_Wait_EmptyGroupResumesImmediately(t *testing.T) {
	s := NewSimulator()
	joinedAt := -1.0
	s.Spawn("parent", func(p *Process) {
		p.Sleep(2, func() {
			NewGroup(s).Wait(p, func() { joinedAt = p.Now() })
		})
	})

	require.NoError(t, s.RunUntil(10))
	assert.Equal(t, 2.0, joinedAt)
}

func TestProcess_DoubleSuspend_IsInvariantViolation(t *testing.T) {
	// GIVEN a step that registers two suspensions
	s := NewSimulator()
	s.Spawn("broken", func(p *Process) {
		p.Sleep(1, func() {})
		p.Sleep(2, func() {})
	})

	// WHEN run
	err := s.RunUntil(10)

	// THEN the run aborts
	var iv *InvariantViolation
	require.True(t, errors.As(err, &iv))
	assert.Contains(t, iv.Message, "suspended twice")
}

func TestProcess_Fail_AbortsRun(t *testing.T) {
	s := NewSimulator()
	sentinel := errors.New("stop")
	later := false
	s.Spawn("failing", func(p *Process) { p.Fail(sentinel) })
	s.After(1, "later", func() { later = true })

	err := s.RunUntil(10)

	assert.ErrorIs(t, err, sentinel)
	assert.False(t, later)
}
