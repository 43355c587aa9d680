package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	t.Parallel()

	driver := &manualDriver{}
	release := make(chan struct{})
	entered := make(chan struct{})
	runs := 0

	s := NewScheduler(driver, func(context.Context, time.Time) error {
		runs++
		close(entered)
		<-release
		return errors.New("partial failure")
	}, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		driver.job(time.Now())
		close(done)
	}()
	<-entered

	driver.job(time.Now())
	close(release)
	<-done

	if runs != 1 {
		t.Fatalf("expected overlapping trigger to be skipped, got %d runs", runs)
	}
	if err := s.Stop(context.Background()); err != nil || !driver.stopped {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestSchedulerWithoutDriver(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}
