package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/logger"
)

func TestCartSweepJobNotifiesOwners(t *testing.T) {
	userID := uuid.New()
	sessionID := "sess-1"
	sweeper := &fakeCartSweeper{abandoned: []models.Cart{
		{ID: uuid.New(), UserID: &userID},
		{ID: uuid.New(), SessionID: &sessionID},
	}}
	users := &fakeUserReader{user: &models.User{ID: userID, Email: "buyer@example.com"}}
	notifier := &fakeNotifier{}
	job := newCartSweepJob(t, sweeper, users, notifier)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if notifier.calls != 1 {
		t.Fatalf("expected 1 notification, got %d", notifier.calls)
	}
	if notifier.lastEmail != "buyer@example.com" {
		t.Fatalf("unexpected recipient %q", notifier.lastEmail)
	}
}

func TestCartSweepJobSurvivesNotificationFailures(t *testing.T) {
	userID := uuid.New()
	sweeper := &fakeCartSweeper{abandoned: []models.Cart{{ID: uuid.New(), UserID: &userID}}}
	users := &fakeUserReader{user: &models.User{ID: userID, Email: "buyer@example.com"}}
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	job := newCartSweepJob(t, sweeper, users, notifier)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("notification failure must not fail the sweep: %v", err)
	}
}

func TestCartSweepJobPropagatesSweepErrors(t *testing.T) {
	sweeper := &fakeCartSweeper{err: errors.New("db down")}
	job := newCartSweepJob(t, sweeper, &fakeUserReader{}, &fakeNotifier{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newCartSweepJob(t *testing.T, sweeper *fakeCartSweeper, users *fakeUserReader, notifier *fakeNotifier) Job {
	t.Helper()
	job, err := NewCartSweepJob(CartSweepJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Carts:    sweeper,
		Users:    users,
		Notifier: notifier,
	})
	if err != nil {
		t.Fatalf("NewCartSweepJob: %v", err)
	}
	return job
}

type fakeCartSweeper struct {
	abandoned []models.Cart
	err       error
}

func (f *fakeCartSweeper) CleanupExpiredCarts(ctx context.Context) ([]models.Cart, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.abandoned, nil
}

type fakeUserReader struct {
	user *models.User
	err  error
}

func (f *fakeUserReader) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil {
		return nil, errors.New("user not found")
	}
	return f.user, nil
}

type fakeNotifier struct {
	calls     int
	lastEmail string
	err       error
}

func (f *fakeNotifier) CartAbandoned(ctx context.Context, email string, cartID uuid.UUID) error {
	f.calls++
	f.lastEmail = email
	return f.err
}

type fakeLock struct {
	acquired bool
	held     bool
}

func (f *fakeLock) Acquire(ctx context.Context) (bool, error) {
	f.held = f.acquired
	return f.acquired, nil
}

func (f *fakeLock) Release(ctx context.Context) error {
	f.held = false
	return nil
}

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func TestServiceRunsRegisteredJobsWhenLocked(t *testing.T) {
	job := &countingJob{name: "test-job"}
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{acquired: true},
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected 1 run, got %d", job.runs)
	}
}

func TestServiceSkipsCycleWithoutLock(t *testing.T) {
	job := &countingJob{name: "test-job"}
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{acquired: false},
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected no runs without the lock, got %d", job.runs)
	}
}
