package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/louisbranch/addressbook/internal/platform/metrics"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
)

// counter is a minimal aggregate: Add(n) emits Added(n) unless n is zero.
type add struct{ n int }
type added struct{ N int }

var errNegative = errors.New("negative")

func counter() Aggregate[int, add, added] {
	return Aggregate[int, add, added]{
		Name:    "counter",
		Initial: func() int { return 0 },
		Evolve:  func(s int, e added) int { return s + e.N },
		Decide: func(s int, c add) ([]added, error) {
			if c.n < 0 {
				return nil, errNegative
			}
			if c.n == 0 {
				return nil, nil
			}
			return []added{{N: c.n}}, nil
		},
		Encode: func(e added) (event.Type, []byte, error) {
			raw, err := json.Marshal(e)
			return "counter.added", raw, err
		},
		Decode: func(env event.Envelope) (added, error) {
			var e added
			err := json.Unmarshal(env.PayloadJSON, &e)
			return e, err
		},
	}
}

type fakeLog struct {
	streams   map[event.StreamID][]event.Envelope
	appends   int
	appendErr error
	loadErr   error
}

func newFakeLog() *fakeLog {
	return &fakeLog{streams: map[event.StreamID][]event.Envelope{}}
}

func (l *fakeLog) Append(_ context.Context, stream event.StreamID, envs []event.Envelope) ([]event.Envelope, error) {
	if l.appendErr != nil {
		return nil, l.appendErr
	}
	l.appends++
	stored := make([]event.Envelope, 0, len(envs))
	for _, env := range envs {
		env.Seq = uint64(len(l.streams[stream]) + 1)
		l.streams[stream] = append(l.streams[stream], env)
		stored = append(stored, env)
	}
	return stored, nil
}

func (l *fakeLog) Load(_ context.Context, stream event.StreamID) ([]event.Envelope, error) {
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	return l.streams[stream], nil
}

func newCounterHandler(t *testing.T, log event.Log, opts ...Option) *Handler[int, add, added] {
	t.Helper()
	h, err := NewHandler(counter(), log, opts...)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h
}

func TestNewHandlerValidates(t *testing.T) {
	if _, err := NewHandler(counter(), nil); !errors.Is(err, ErrLogRequired) {
		t.Fatalf("err = %v, want ErrLogRequired", err)
	}
	incomplete := counter()
	incomplete.Decode = nil
	if _, err := NewHandler(incomplete, newFakeLog()); !errors.Is(err, ErrAggregateIncomplete) {
		t.Fatalf("err = %v, want ErrAggregateIncomplete", err)
	}
}

func TestRunAppendsAndFolds(t *testing.T) {
	log := newFakeLog()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	h := newCounterHandler(t, log, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	for _, n := range []int{2, 3} {
		events, err := h.Run(ctx, "counter-1", add{n: n})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(events) != 1 || events[0].N != n {
			t.Fatalf("events = %v", events)
		}
	}

	state, err := h.Load(ctx, "counter-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state != 5 {
		t.Fatalf("state = %d, want 5", state)
	}
	stored := log.streams["counter-1"]
	if stored[1].Seq != 2 || stored[1].Type != "counter.added" || !stored[1].Timestamp.Equal(fixed) || stored[1].Timestamp.Location() != time.UTC {
		t.Fatalf("stored = %+v", stored[1])
	}
}

func TestRunNoopDoesNotAppend(t *testing.T) {
	log := newFakeLog()
	h := newCounterHandler(t, log)

	events, err := h.Run(context.Background(), "counter-1", add{n: 0})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Fatalf("events = %#v, want empty non-nil slice", events)
	}
	if log.appends != 0 {
		t.Fatalf("appends = %d, want 0", log.appends)
	}
}

func TestRunDomainErrorIsReturnedUnchanged(t *testing.T) {
	log := newFakeLog()
	h := newCounterHandler(t, log)

	_, err := h.Run(context.Background(), "counter-1", add{n: -1})
	if err != errNegative {
		t.Fatalf("err = %v, want errNegative unwrapped", err)
	}
	if log.appends != 0 {
		t.Fatalf("appends = %d, want 0", log.appends)
	}
}

func TestRunWrapsInfrastructureErrors(t *testing.T) {
	disk := errors.New("disk full")

	log := newFakeLog()
	log.appendErr = disk
	if _, err := newCounterHandler(t, log).Run(context.Background(), "counter-1", add{n: 1}); !errors.Is(err, disk) || err == disk {
		t.Fatalf("append err = %v, want wrapped disk error", err)
	}

	log = newFakeLog()
	log.loadErr = disk
	if _, err := newCounterHandler(t, log).Load(context.Background(), "counter-1"); !errors.Is(err, disk) {
		t.Fatalf("load err = %v, want wrapped disk error", err)
	}
}

func TestRunReportsUndecodableHistory(t *testing.T) {
	log := newFakeLog()
	log.streams["counter-1"] = []event.Envelope{{Seq: 1, Type: "counter.added", PayloadJSON: []byte("{")}}

	if _, err := newCounterHandler(t, log).Run(context.Background(), "counter-1", add{n: 1}); err == nil {
		t.Fatal("expected decode failure")
	}
}

func TestStreamsAreIsolated(t *testing.T) {
	log := newFakeLog()
	h := newCounterHandler(t, log)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if _, err := h.Run(ctx, event.StreamID(fmt.Sprintf("counter-%d", i)), add{n: i}); err != nil {
			t.Fatalf("run: %v", err)
		}
	}
	state, err := h.Load(ctx, "counter-2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state != 2 {
		t.Fatalf("state = %d, want 2", state)
	}
}

func TestRunRecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := newCounterHandler(t, newFakeLog(), WithMetrics(m))
	ctx := context.Background()

	_, _ = h.Run(ctx, "counter-1", add{n: 1})
	_, _ = h.Run(ctx, "counter-1", add{n: 0})
	_, _ = h.Run(ctx, "counter-1", add{n: -1})

	for _, outcome := range []string{metrics.OutcomeApplied, metrics.OutcomeNoop, metrics.OutcomeRejected} {
		if got := testutil.ToFloat64(m.CommandsTotal.WithLabelValues("counter", outcome)); got != 1 {
			t.Fatalf("%s = %v, want 1", outcome, got)
		}
	}
}

func TestDefectPanics(t *testing.T) {
	defer func() {
		r := recover()
		defect, ok := r.(*DefectError)
		if !ok {
			t.Fatalf("recovered %v, want *DefectError", r)
		}
		if !errors.Is(defect, errNegative) {
			t.Fatalf("defect = %v", defect)
		}
	}()
	Defect("counter.add", errNegative)
}
