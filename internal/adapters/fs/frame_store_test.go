package fs

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/pkg/log"
)

// faultyVolume wraps a DirVolume and injects storage faults.
type faultyVolume struct {
	*DirVolume
	failCreate error
	shortWrite bool
	failOpen   map[string]error
}

type shortFile struct {
	File
}

func (f shortFile) Write(p []byte) (int, error) {
	return f.File.Write(p[:len(p)/2])
}

func (v *faultyVolume) Create(name string) (File, error) {
	if v.failCreate != nil {
		return nil, v.failCreate
	}
	f, err := v.DirVolume.Create(name)
	if err != nil {
		return nil, err
	}
	if v.shortWrite {
		return shortFile{f}, nil
	}
	return f, nil
}

func (v *faultyVolume) Open(name string) (File, error) {
	if err, ok := v.failOpen[name]; ok {
		return nil, err
	}
	return v.DirVolume.Open(name)
}

func newTestVolume(t *testing.T) *faultyVolume {
	t.Helper()
	dv, err := NewDirVolume(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewDirVolume: %v", err)
	}
	return &faultyVolume{DirVolume: dv, failOpen: map[string]error{}}
}

func makeFrame(fill byte) domain.Frame {
	return bytes.Repeat([]byte{fill}, domain.FrameSize)
}

func mustEnqueue(t *testing.T, s *FrameStore, fill byte) uint64 {
	t.Helper()
	seq, err := s.Enqueue(makeFrame(fill))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	return seq
}

func mustDequeue(t *testing.T, s *FrameStore) domain.Entry {
	t.Helper()
	e, err := s.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	return e
}

func TestFrameStore_EnqueueAssignsConsecutiveSequences(t *testing.T) {
	vol := newTestVolume(t)
	s := NewFrameStore(vol, log.NewNoopLogger())

	for want := uint64(0); want < 5; want++ {
		if got := mustEnqueue(t, s, byte(want)); got != want {
			t.Fatalf("seq = %d, want %d", got, want)
		}
		if _, err := os.Stat(filepath.Join(vol.Dir(), entryName(want))); err != nil {
			t.Fatalf("entry %d not on disk: %v", want, err)
		}
	}
	if got := s.Len(); got != 5 {
		t.Errorf("Len = %d, want 5", got)
	}
}

func TestFrameStore_FIFOOrder(t *testing.T) {
	s := NewFrameStore(newTestVolume(t), log.NewNoopLogger())

	for i := 0; i < 3; i++ {
		mustEnqueue(t, s, byte(10+i))
	}

	if e := mustDequeue(t, s); e.Seq != 0 || e.Frame[0] != 10 {
		t.Fatalf("first dequeue = seq %d fill %d, want seq 0 fill 10", e.Seq, e.Frame[0])
	}

	if seq := mustEnqueue(t, s, 13); seq != 3 {
		t.Fatalf("enqueue after dequeue = %d, want 3", seq)
	}

	for _, want := range []struct {
		seq  uint64
		fill byte
	}{{1, 11}, {2, 12}, {3, 13}} {
		e := mustDequeue(t, s)
		if e.Seq != want.seq || e.Frame[0] != want.fill {
			t.Fatalf("dequeue = seq %d fill %d, want seq %d fill %d", e.Seq, e.Frame[0], want.seq, want.fill)
		}
		if len(e.Frame) != domain.FrameSize {
			t.Fatalf("frame size = %d, want %d", len(e.Frame), domain.FrameSize)
		}
	}

	if _, err := s.Dequeue(); !errors.Is(err, domain.ErrQueueEmpty) {
		t.Fatalf("Dequeue on empty = %v, want ErrQueueEmpty", err)
	}
}

func TestFrameStore_CounterDerivedFromResidentEntries(t *testing.T) {
	vol := newTestVolume(t)
	for _, name := range []string{"frame-000007.bin", "frame-12.bin"} {
		if err := os.WriteFile(filepath.Join(vol.Dir(), name), makeFrame(1), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s := NewFrameStore(vol, log.NewNoopLogger())
	if seq := mustEnqueue(t, s, 2); seq != 13 {
		t.Fatalf("seq = %d, want 13", seq)
	}

	for _, want := range []uint64{7, 12, 13} {
		if e := mustDequeue(t, s); e.Seq != want {
			t.Fatalf("dequeue seq = %d, want %d", e.Seq, want)
		}
	}
}

func TestFrameStore_HasEntriesClearsCounter(t *testing.T) {
	s := NewFrameStore(newTestVolume(t), log.NewNoopLogger())

	mustEnqueue(t, s, 0)
	mustEnqueue(t, s, 1)
	mustDequeue(t, s)
	mustDequeue(t, s)

	// cached counter is still live
	if seq := mustEnqueue(t, s, 2); seq != 2 {
		t.Fatalf("seq = %d, want 2", seq)
	}
	mustDequeue(t, s)

	if s.HasEntries() {
		t.Fatal("HasEntries = true on empty store")
	}
	if seq := mustEnqueue(t, s, 3); seq != 0 {
		t.Fatalf("seq after empty check = %d, want 0", seq)
	}
}

func TestFrameStore_PurgeAll(t *testing.T) {
	vol := newTestVolume(t)
	s := NewFrameStore(vol, log.NewNoopLogger())

	keep := filepath.Join(vol.Dir(), "notes.txt")
	if err := os.WriteFile(keep, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		mustEnqueue(t, s, byte(i))
	}

	if err := s.PurgeAll(); err != nil {
		t.Fatalf("PurgeAll: %v", err)
	}
	if s.HasEntries() {
		t.Fatal("HasEntries = true after purge")
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d after purge", s.Len())
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("non-entry file removed: %v", err)
	}
	if seq := mustEnqueue(t, s, 9); seq != 0 {
		t.Fatalf("seq after purge = %d, want 0", seq)
	}
}

func TestFrameStore_WriteFailureErasesStore(t *testing.T) {
	tests := []struct {
		name   string
		inject func(v *faultyVolume)
	}{
		{"short write", func(v *faultyVolume) { v.shortWrite = true }},
		{"open failure", func(v *faultyVolume) { v.failCreate = errors.New("no space") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol := newTestVolume(t)
			s := NewFrameStore(vol, log.NewNoopLogger())
			for i := 0; i < 3; i++ {
				mustEnqueue(t, s, byte(i))
			}

			tt.inject(vol)
			_, err := s.Enqueue(makeFrame(7))
			if !errors.Is(err, domain.ErrStorageCorrupted) {
				t.Fatalf("Enqueue err = %v, want ErrStorageCorrupted", err)
			}

			names, err := vol.List()
			if err != nil {
				t.Fatal(err)
			}
			if len(names) != 0 {
				t.Fatalf("resident files after failed write = %v, want none", names)
			}

			*vol = faultyVolume{DirVolume: vol.DirVolume, failOpen: map[string]error{}}
			if seq := mustEnqueue(t, s, 8); seq != 0 {
				t.Fatalf("seq after recovery = %d, want 0", seq)
			}
		})
	}
}

func TestFrameStore_UnreadableEntryRemovedAlone(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(t *testing.T, v *faultyVolume, name string)
	}{
		{
			name: "zero length",
			corrupt: func(t *testing.T, v *faultyVolume, name string) {
				if err := os.Truncate(filepath.Join(v.Dir(), name), 0); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "short entry",
			corrupt: func(t *testing.T, v *faultyVolume, name string) {
				if err := os.Truncate(filepath.Join(v.Dir(), name), 100); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "open failure",
			corrupt: func(t *testing.T, v *faultyVolume, name string) {
				v.failOpen[name] = errors.New("i/o error")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol := newTestVolume(t)
			s := NewFrameStore(vol, log.NewNoopLogger())
			for i := 0; i < 3; i++ {
				mustEnqueue(t, s, byte(20+i))
			}

			tt.corrupt(t, vol, entryName(0))

			if _, err := s.Dequeue(); !errors.Is(err, domain.ErrEntryUnreadable) {
				t.Fatalf("Dequeue err = %v, want ErrEntryUnreadable", err)
			}
			if got := s.Len(); got != 2 {
				t.Fatalf("Len = %d, want 2", got)
			}

			e := mustDequeue(t, s)
			if e.Seq != 1 || !bytes.Equal(e.Frame, makeFrame(21)) {
				t.Fatalf("next dequeue = seq %d, want intact seq 1", e.Seq)
			}
		})
	}
}

func TestFrameStore_EnqueueRejectsWrongSize(t *testing.T) {
	vol := newTestVolume(t)
	s := NewFrameStore(vol, log.NewNoopLogger())
	mustEnqueue(t, s, 1)

	if _, err := s.Enqueue(make(domain.Frame, 10)); !errors.Is(err, domain.ErrFrameSize) {
		t.Fatalf("err = %v, want ErrFrameSize", err)
	}
	if s.Len() != 1 {
		t.Fatal("size violation must not touch resident entries")
	}
}

func TestFrameStore_HasCapacityForOneMore(t *testing.T) {
	threshold := int64(domain.FrameSize) + DefaultHeadroom

	tests := []struct {
		name string
		free int64
		want bool
	}{
		{"below threshold", threshold - 1, false},
		{"at threshold", threshold, false},
		{"above threshold", threshold + 1, true},
		{"plenty", 10 * threshold, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol := newTestVolume(t)
			vol.statfs = func(path string, buf *unix.Statfs_t) error {
				buf.Bavail = uint64(tt.free)
				buf.Bsize = 1
				return nil
			}
			s := NewFrameStore(vol, log.NewNoopLogger())
			if got := s.HasCapacityForOneMore(); got != tt.want {
				t.Errorf("HasCapacityForOneMore() with free=%d = %v, want %v", tt.free, got, tt.want)
			}
		})
	}
}

func TestFrameStore_QuotaBoundsCapacity(t *testing.T) {
	dv, err := NewDirVolume(t.TempDir(), 2*int64(domain.FrameSize)+DefaultHeadroom)
	if err != nil {
		t.Fatal(err)
	}
	s := NewFrameStore(dv, log.NewNoopLogger())

	stored := 0
	for s.HasCapacityForOneMore() {
		mustEnqueue(t, s, byte(stored))
		stored++
		if stored > 10 {
			t.Fatal("quota did not bound the fill")
		}
	}
	if stored != 1 {
		t.Fatalf("stored %d frames under quota, want 1", stored)
	}
}

func TestParseEntryName(t *testing.T) {
	tests := []struct {
		name   string
		want   uint64
		wantOK bool
	}{
		{"frame-000000.bin", 0, true},
		{"frame-000042.bin", 42, true},
		{"frame-7.bin", 7, true},
		{"frame-1234567.bin", 1234567, true},
		{"frame-.bin", 0, false},
		{"frame-12a.bin", 0, false},
		{"frame-+1.bin", 0, false},
		{"image0001.bmp", 0, false},
		{"frame-000001.bin.tmp", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseEntryName(tt.name)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseEntryName(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}
