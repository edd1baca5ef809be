package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

func TestChecker_Check(t *testing.T) {
	p := &fakePinger{}
	c := NewChecker(p, discardLogger(), time.Hour)

	if !c.Last().CheckedAt.IsZero() {
		t.Fatal("Last before any check should be zero")
	}

	if st := c.Check(context.Background()); !st.OK {
		t.Fatalf("Check = %+v, want OK", st)
	}

	p.err = errors.New("connection refused")
	st := c.Check(context.Background())
	if st.OK || st.Error != "connection refused" {
		t.Fatalf("Check = %+v, want failure", st)
	}
	if last := c.Last(); last.OK || last.Error != st.Error {
		t.Fatalf("Last = %+v, want %+v", last, st)
	}
}

func TestChecker_StartStopsOnCancel(t *testing.T) {
	c := NewChecker(&fakePinger{}, discardLogger(), time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
	if !c.Last().OK {
		t.Errorf("Last = %+v, want OK", c.Last())
	}
}
