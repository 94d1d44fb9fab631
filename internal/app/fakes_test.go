package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

func (m mockLogger) With(fields ...ports.Field) ports.Logger { return m }

func frameOf(fill byte) domain.Frame {
	return bytes.Repeat([]byte{fill}, domain.FrameSize)
}

// fakeStore is an in-memory FrameStore bounded by an entry count.
type fakeStore struct {
	entries  []domain.Entry
	next     uint64
	capacity int
	purges   int

	dequeueErrs []error
	enqueueErrs []error
}

func newFakeStore(capacity int, fills ...byte) *fakeStore {
	s := &fakeStore{capacity: capacity}
	for _, f := range fills {
		s.Enqueue(frameOf(f))
	}
	return s
}

func (s *fakeStore) HasEntries() bool {
	if len(s.entries) == 0 {
		s.next = 0
		return false
	}
	return true
}

func (s *fakeStore) HasCapacityForOneMore() bool { return len(s.entries) < s.capacity }

func (s *fakeStore) Enqueue(frame domain.Frame) (uint64, error) {
	if len(s.enqueueErrs) > 0 {
		err := s.enqueueErrs[0]
		s.enqueueErrs = s.enqueueErrs[1:]
		if err != nil {
			s.entries = nil
			s.next = 0
			return 0, err
		}
	}
	seq := s.next
	s.entries = append(s.entries, domain.Entry{Seq: seq, Frame: frame})
	s.next++
	return seq, nil
}

func (s *fakeStore) Dequeue() (domain.Entry, error) {
	if len(s.dequeueErrs) > 0 {
		err := s.dequeueErrs[0]
		s.dequeueErrs = s.dequeueErrs[1:]
		if len(s.entries) > 0 {
			s.entries = s.entries[1:]
		}
		return domain.Entry{}, err
	}
	if len(s.entries) == 0 {
		return domain.Entry{}, domain.ErrQueueEmpty
	}
	e := s.entries[0]
	s.entries = s.entries[1:]
	return e, nil
}

func (s *fakeStore) PurgeAll() error {
	s.entries = nil
	s.next = 0
	s.purges++
	return nil
}

func (s *fakeStore) Len() int { return len(s.entries) }

// fakeSource returns frames filled with an increasing byte, failing after
// limit frames when limit is non-negative.
type fakeSource struct {
	fill    byte
	fetched int
	limit   int
}

func (f *fakeSource) Fetch(ctx context.Context) (domain.Frame, error) {
	if f.limit >= 0 && f.fetched >= f.limit {
		return nil, domain.ErrSourceUnavailable
	}
	f.fetched++
	f.fill++
	return frameOf(f.fill), nil
}

type fakeNetwork struct {
	mu          sync.Mutex
	connectErr  error
	connects    int
	disconnects int
}

func (n *fakeNetwork) Connect(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.connects++
	return n.connectErr
}

func (n *fakeNetwork) Disconnect(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disconnects++
	return nil
}

type displayEvent struct {
	kind string
	text string
	at   time.Time
}

type fakeDisplay struct {
	clock  clock.Clock
	events []displayEvent
}

func (d *fakeDisplay) record(kind, text string) {
	d.events = append(d.events, displayEvent{kind: kind, text: text, at: d.clock.Now()})
}

func (d *fakeDisplay) Render(ctx context.Context, frame domain.Frame) error {
	d.record("render", fmt.Sprint(frame[0]))
	return nil
}

func (d *fakeDisplay) ShowMessage(ctx context.Context, text string) error {
	d.record("show", text)
	return nil
}

func (d *fakeDisplay) DismissMessage(ctx context.Context) error {
	d.record("dismiss", "")
	return nil
}

func (d *fakeDisplay) PowerDown(ctx context.Context) error {
	d.record("powerdown", "")
	return nil
}

func (d *fakeDisplay) find(kind string) []displayEvent {
	var out []displayEvent
	for _, e := range d.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fakePower struct {
	reason    domain.WakeReason
	suspended []time.Duration
}

func (p *fakePower) WakeReason() domain.WakeReason { return p.reason }

func (p *fakePower) Suspend(ctx context.Context, d time.Duration) error {
	p.suspended = append(p.suspended, d)
	return domain.ErrRestart
}

type fakeInput struct {
	asserted bool
	err      error
}

func (i fakeInput) Asserted() (bool, error) { return i.asserted, i.err }

type fakeStatusRepo struct {
	saved []domain.CycleStatus
}

func (r *fakeStatusRepo) Load(ctx context.Context) (domain.CycleStatus, error) {
	if len(r.saved) == 0 {
		return domain.CycleStatus{}, nil
	}
	return r.saved[len(r.saved)-1], nil
}

func (r *fakeStatusRepo) Save(ctx context.Context, s domain.CycleStatus) error {
	r.saved = append(r.saved, s)
	return nil
}

type fakeTable struct {
	parts []domain.Partition
	err   error
}

func (t *fakeTable) Partitions() ([]domain.Partition, error) {
	return t.parts, t.err
}

func (t *fakeTable) FindByRole(role domain.Role) (domain.Partition, error) {
	for _, p := range t.parts {
		if p.Role == role {
			return p, nil
		}
	}
	return domain.Partition{}, fmt.Errorf("%w: role %s", domain.ErrPartitionNotFound, role)
}

func standardTable() *fakeTable {
	return &fakeTable{parts: []domain.Partition{
		{Label: "factory", Role: domain.RoleSelector},
		{Label: "ota_0", Role: domain.AppRole(0)},
		{Label: "ota_1", Role: domain.AppRole(1)},
	}}
}

type fakeBoot struct {
	label    string
	readErr  error
	setErr   error
	sets     []string
	restarts int
}

func (b *fakeBoot) BootPartition() (string, error) { return b.label, b.readErr }

func (b *fakeBoot) SetBootPartition(p domain.Partition) error {
	if b.setErr != nil {
		return b.setErr
	}
	b.label = p.Label
	b.sets = append(b.sets, p.Label)
	return nil
}

func (b *fakeBoot) Restart() error {
	b.restarts++
	return domain.ErrRestart
}

// cycleHarness wires a WorkCycle to fakes on a mock clock.
type cycleHarness struct {
	clock   *clock.Mock
	store   *fakeStore
	source  *fakeSource
	network *fakeNetwork
	display *fakeDisplay
	power   *fakePower
	status  *fakeStatusRepo
	reset   ports.DigitalInput
	cfg     CycleConfig
}

func newHarness(store *fakeStore, reason domain.WakeReason) *cycleHarness {
	mock := clock.NewMock()
	return &cycleHarness{
		clock:   mock,
		store:   store,
		source:  &fakeSource{limit: -1},
		network: &fakeNetwork{},
		display: &fakeDisplay{clock: mock},
		power:   &fakePower{reason: reason},
		status:  &fakeStatusRepo{},
		cfg:     DefaultCycleConfig(),
	}
}

// run executes one cycle, advancing the mock clock until it returns.
func (h *cycleHarness) run(t *testing.T) error {
	t.Helper()
	w := NewWorkCycle(h.cfg, CycleDeps{
		Store:   h.store,
		Source:  h.source,
		Network: h.network,
		Display: h.display,
		Power:   h.power,
		Reset:   h.reset,
		Status:  h.status,
		Clock:   h.clock,
		Logger:  mockLogger{},
	})

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	deadline := time.After(10 * time.Second)
	for {
		select {
		case err := <-done:
			return err
		case <-deadline:
			t.Fatal("work cycle did not finish")
			return nil
		default:
			h.clock.Add(100 * time.Millisecond)
		}
	}
}

func requireRestart(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, domain.ErrRestart) {
		t.Fatalf("Run() error = %v, want ErrRestart", err)
	}
}
