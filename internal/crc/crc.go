// Package crc computes the PNG chunk CRC-32, polynomial 0xEDB88320
// reflected — the same polynomial as hash/crc32.IEEE. This is the thin,
// named seam the chunk codec calls through so the dependency stays visible
// in the package graph.
package crc

import "hash/crc32"

// Checksum returns CRC32(typ ++ data), the value a chunk's trailing CRC
// field must equal.
func Checksum(typ [4]byte, data []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write(typ[:])
	h.Write(data)
	return h.Sum32()
}
