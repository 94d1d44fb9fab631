package platform

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	fsadapter "github.com/bft-labs/framecast/internal/adapters/fs"
	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// OTADataFile holds the boot selection record.
const OTADataFile = "otadata.cbor"

// otadataKey separates boot record checksums from any other keyed hash.
var otadataKey = [32]byte{
	'f', 'r', 'a', 'm', 'e', 'c', 'a', 's', 't', '.', 'o', 't', 'a', 'd', 'a', 't',
	'a', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("platform: CBOR encoder initialization failed: " + err.Error())
	}
}

type selectionBody struct {
	Label    string `cbor:"1,keyasint"`
	Sequence uint64 `cbor:"2,keyasint"`
}

type bootRecord struct {
	Body     selectionBody `cbor:"1,keyasint"`
	Checksum []byte        `cbor:"2,keyasint"`
}

func checksum(body selectionBody) ([]byte, error) {
	data, err := encMode.Marshal(body)
	if err != nil {
		return nil, err
	}
	h, err := blake3.NewKeyed(otadataKey[:])
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// BootControl implements ports.BootControl with a record file in the state
// directory. A missing record selects the selector partition.
type BootControl struct {
	path   string
	logger ports.Logger
}

// NewBootControl creates a BootControl storing its record under stateDir.
func NewBootControl(stateDir string, logger ports.Logger) *BootControl {
	return &BootControl{path: filepath.Join(stateDir, OTADataFile), logger: logger}
}

// Selection reads and verifies the record. A missing record returns the zero
// selection; a corrupt one wraps domain.ErrBootSelection.
func (b *BootControl) Selection() (domain.BootSelection, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.BootSelection{}, nil
	}
	if err != nil {
		return domain.BootSelection{}, fmt.Errorf("%w: read %s: %w", domain.ErrBootSelection, b.path, err)
	}

	var rec bootRecord
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return domain.BootSelection{}, fmt.Errorf("%w: decode %s: %w", domain.ErrBootSelection, b.path, err)
	}
	want, err := checksum(rec.Body)
	if err != nil {
		return domain.BootSelection{}, fmt.Errorf("%w: %w", domain.ErrBootSelection, err)
	}
	if !bytes.Equal(want, rec.Checksum) {
		return domain.BootSelection{}, fmt.Errorf("%w: %s checksum mismatch", domain.ErrBootSelection, b.path)
	}
	return domain.BootSelection{Label: rec.Body.Label, Sequence: rec.Body.Sequence}, nil
}

// BootPartition implements ports.BootControl. An empty label means the
// selector partition.
func (b *BootControl) BootPartition() (string, error) {
	sel, err := b.Selection()
	return sel.Label, err
}

// SetBootPartition implements ports.BootControl. The record is replaced
// atomically with a higher sequence number.
func (b *BootControl) SetBootPartition(p domain.Partition) error {
	prev, err := b.Selection()
	if err != nil {
		b.logger.Warn("replacing unreadable boot record", ports.Err(err))
	}

	body := selectionBody{Label: p.Label, Sequence: prev.Sequence + 1}
	sum, err := checksum(body)
	if err != nil {
		return fmt.Errorf("checksum boot record: %w", err)
	}
	data, err := encMode.Marshal(bootRecord{Body: body, Checksum: sum})
	if err != nil {
		return fmt.Errorf("encode boot record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := fsadapter.WriteFileAtomic(b.path, data, 0644); err != nil {
		return fmt.Errorf("write boot record: %w", err)
	}

	b.logger.Debug("boot selection written",
		ports.String("label", body.Label),
		ports.Uint64("sequence", body.Sequence),
	)
	return nil
}

// Restart implements ports.BootControl. The caller exits with the restart
// status and the supervisor boots the selected partition.
func (b *BootControl) Restart() error {
	return domain.ErrRestart
}
