package fs

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

const (
	entryPrefix = "frame-"
	entryExt    = ".bin"

	// DefaultHeadroom is kept free on top of one frame so that writing the
	// next entry, including filesystem metadata, cannot exhaust the volume.
	DefaultHeadroom int64 = 1000
)

// FrameStore implements ports.FrameStore as one file per entry on a Volume.
//
// Entry names are frame-<seq>.bin with a zero-padded sequence number. Order is
// always taken from the parsed number, never from the name.
type FrameStore struct {
	vol      Volume
	headroom int64
	logger   ports.Logger

	// next is the sequence number for the next Enqueue; valid only when
	// nextSet is true. It is advisory and rebuilt from a scan when unset.
	next    uint64
	nextSet bool
}

// StoreOption configures a FrameStore.
type StoreOption func(*FrameStore)

// WithHeadroom overrides DefaultHeadroom.
func WithHeadroom(bytes int64) StoreOption {
	return func(s *FrameStore) {
		s.headroom = bytes
	}
}

// NewFrameStore creates a store over vol. The sequence counter starts unset.
func NewFrameStore(vol Volume, logger ports.Logger, opts ...StoreOption) *FrameStore {
	s := &FrameStore{
		vol:      vol,
		headroom: DefaultHeadroom,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type entryRef struct {
	seq  uint64
	name string
}

func entryName(seq uint64) string {
	return fmt.Sprintf("%s%06d%s", entryPrefix, seq, entryExt)
}

// parseEntryName accepts any digit count so entries written with another
// padding width still order correctly.
func parseEntryName(name string) (uint64, bool) {
	if !strings.HasPrefix(name, entryPrefix) || !strings.HasSuffix(name, entryExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, entryPrefix), entryExt)
	if digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	seq, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// scan lists every resident entry. Cost is linear in the entry count.
func (s *FrameStore) scan() ([]entryRef, error) {
	names, err := s.vol.List()
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	refs := make([]entryRef, 0, len(names))
	for _, name := range names {
		if seq, ok := parseEntryName(name); ok {
			refs = append(refs, entryRef{seq: seq, name: name})
		}
	}
	return refs, nil
}

func (s *FrameStore) resetCounter() {
	s.next = 0
	s.nextSet = false
}

// HasEntries reports whether any entry is resident. An empty store clears
// the sequence counter.
func (s *FrameStore) HasEntries() bool {
	refs, err := s.scan()
	if err != nil {
		s.logger.Warn("frame store scan failed", ports.Err(err))
	}
	if len(refs) == 0 {
		s.resetCounter()
		return false
	}
	return true
}

// HasCapacityForOneMore reports whether free space is strictly greater than
// one frame plus headroom.
func (s *FrameStore) HasCapacityForOneMore() bool {
	free, err := s.vol.Free()
	if err != nil {
		s.logger.Warn("frame store free space unavailable", ports.Err(err))
		return false
	}
	return free > int64(domain.FrameSize)+s.headroom
}

// Len returns the number of resident entries.
func (s *FrameStore) Len() int {
	refs, err := s.scan()
	if err != nil {
		s.logger.Warn("frame store scan failed", ports.Err(err))
		return 0
	}
	return len(refs)
}

// Enqueue writes frame as a new entry and returns its sequence number.
// Any incomplete write erases the whole store.
func (s *FrameStore) Enqueue(frame domain.Frame) (uint64, error) {
	if err := frame.Validate(); err != nil {
		return 0, err
	}

	if !s.nextSet {
		refs, err := s.scan()
		if err != nil {
			return 0, err
		}
		var next uint64
		for _, r := range refs {
			if r.seq+1 > next {
				next = r.seq + 1
			}
		}
		s.next = next
		s.nextSet = true
	}

	seq := s.next
	name := entryName(seq)

	f, err := s.vol.Create(name)
	if err != nil {
		return 0, s.failWrite(name, fmt.Errorf("open: %w", err))
	}
	n, werr := f.Write(frame)
	if werr == nil && n < len(frame) {
		werr = io.ErrShortWrite
	}
	if werr == nil {
		werr = f.Sync()
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return 0, s.failWrite(name, werr)
	}

	s.next++
	s.logger.Debug("frame stored", ports.Uint64("seq", seq), ports.String("entry", name))
	return seq, nil
}

func (s *FrameStore) failWrite(name string, cause error) error {
	s.logger.Error("frame write failed, erasing store",
		ports.String("entry", name),
		ports.Err(cause),
	)
	if err := s.PurgeAll(); err != nil {
		s.logger.Error("erase after write failure", ports.Err(err))
	}
	return fmt.Errorf("write %s: %w: %w", name, domain.ErrStorageCorrupted, cause)
}

// Dequeue reads and deletes the oldest entry. An entry that cannot be read
// in full is deleted on its own and reported as unreadable.
func (s *FrameStore) Dequeue() (domain.Entry, error) {
	refs, err := s.scan()
	if err != nil {
		return domain.Entry{}, err
	}
	if len(refs) == 0 {
		return domain.Entry{}, domain.ErrQueueEmpty
	}

	oldest := refs[0]
	for _, r := range refs[1:] {
		if r.seq < oldest.seq {
			oldest = r
		}
	}

	data, err := s.read(oldest.name)
	if err != nil {
		return domain.Entry{}, s.dropUnreadable(oldest, err)
	}
	if err := s.vol.Remove(oldest.name); err != nil {
		return domain.Entry{}, fmt.Errorf("remove %s: %w: %w", oldest.name, domain.ErrEntryUnreadable, err)
	}

	return domain.Entry{Seq: oldest.seq, Frame: data}, nil
}

func (s *FrameStore) read(name string) (domain.Frame, error) {
	f, err := s.vol.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if info.Size() == 0 {
		return nil, errors.New("zero-length entry")
	}
	if info.Size() > domain.FrameSize {
		s.logger.Warn("oversized entry, reading leading frame",
			ports.String("entry", name),
			ports.Int64("size", info.Size()),
		)
	}

	buf := make([]byte, domain.FrameSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return buf, nil
}

func (s *FrameStore) dropUnreadable(ref entryRef, cause error) error {
	s.logger.Warn("unreadable entry, deleting",
		ports.Uint64("seq", ref.seq),
		ports.String("entry", ref.name),
		ports.Err(cause),
	)
	if err := s.vol.Remove(ref.name); err != nil {
		s.logger.Error("delete unreadable entry", ports.String("entry", ref.name), ports.Err(err))
	}
	return fmt.Errorf("%s: %w: %w", ref.name, domain.ErrEntryUnreadable, cause)
}

// PurgeAll erases every entry and resets the sequence counter. Files that are
// not entries are left alone.
func (s *FrameStore) PurgeAll() error {
	s.resetCounter()

	refs, err := s.scan()
	if err != nil {
		return err
	}
	var errs []error
	for _, r := range refs {
		if err := s.vol.Remove(r.name); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", r.name, err))
		}
	}
	s.logger.Info("frame store erased", ports.Int("entries", len(refs)))
	return errors.Join(errs...)
}
