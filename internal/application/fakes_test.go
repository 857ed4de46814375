package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/ports"
)

type invokeFunc func(shape domain.Shape, args []any) (any, error)

type fakeCapability struct {
	name    string
	handle  domain.ObjectRef
	invoke  invokeFunc
	called  []string
	invoked []domain.Shape
	args    [][]any
	closed  int
}

func (c *fakeCapability) Handle() domain.ObjectRef { return c.handle }

func (c *fakeCapability) Invoke(_ context.Context, shape domain.Shape, args []any) (any, error) {
	c.invoked = append(c.invoked, shape)
	c.args = append(c.args, args)
	if c.invoke == nil {
		return nil, nil
	}
	return c.invoke(shape, args)
}

func (c *fakeCapability) Call(_ context.Context, method string, _ []any) (any, error) {
	c.called = append(c.called, method)
	return nil, nil
}

func (c *fakeCapability) Close(context.Context) error {
	c.closed++
	return nil
}

// fakeLocator hands out capabilities by qualified name and reports every
// other descriptor as missing.
type fakeLocator struct {
	mu      sync.Mutex
	caps    map[string]*fakeCapability
	located []string
	hints   []map[domain.Key]string
}

func newFakeLocator(caps ...*fakeCapability) *fakeLocator {
	l := &fakeLocator{caps: map[string]*fakeCapability{}}
	for _, c := range caps {
		l.caps[c.name] = c
	}
	return l
}

func (l *fakeLocator) Locate(_ context.Context, req ports.LocateRequest) (ports.Capability, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	name := req.Descriptor.QualifiedName()
	l.located = append(l.located, name)
	l.hints = append(l.hints, req.Hints)

	c, ok := l.caps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCapabilityNotFound, name)
	}
	return c, nil
}

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 31, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

type pollStep struct {
	progress []domain.TaskProgress
	err      error
}

// scriptedQuery replays one step per poll and repeats the last one.
type scriptedQuery struct {
	steps []pollStep
	calls int
}

func (q *scriptedQuery) Query(context.Context, []int) ([]domain.TaskProgress, error) {
	step := q.steps[min(q.calls, len(q.steps)-1)]
	q.calls++
	return step.progress, step.err
}

type recordingReporter struct {
	reports []domain.TaskProgress
}

func (r *recordingReporter) ReportProgress(_ context.Context, progress domain.TaskProgress) {
	r.reports = append(r.reports, progress)
}

func task(id int, status domain.TaskStatus) []domain.TaskProgress {
	return []domain.TaskProgress{{ID: id, Description: "Consolidate", Percent: 50, Status: status}}
}

func descriptor(class, method string, shapes ...domain.Shape) domain.CapabilityDescriptor {
	return domain.CapabilityDescriptor{Class: class, Method: method, Shapes: shapes}
}
