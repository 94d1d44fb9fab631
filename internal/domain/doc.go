// Package domain contains the core entities and value objects for framecast.
//
// This package has no dependencies on infrastructure concerns (file system,
// HTTP, GPIO, logging) and holds only the data model shared by the frame
// queue, the work cycle and the boot arbitration stage.
//
// # Entities
//
//   - [Frame]: one fixed-size image payload, exactly [FrameSize] bytes
//   - [Entry]: a resident queue entry, a sequence number paired with its frame
//   - [Partition]: a bootable image declared in the partition table
//   - [BootSelection]: the persisted pointer naming the next boot partition
//   - [CycleStatus]: summary of the last work cycle, persisted for inspection
package domain
