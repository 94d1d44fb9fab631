// Package platform emulates the device platform on a Linux host: the partition
// table, the persisted boot selection, the wake/suspend cycle and the launching
// of partition images.
//
// Files kept in the state directory:
//
//	otadata.cbor   boot selection record (CBOR, keyed BLAKE3 checksum)
//	wake.marker    written before suspend, consumed by the next wake
package platform
