package crc

import "testing"

func TestChecksumKnownChunk(t *testing.T) {
	// IEND chunks always carry the same CRC: ae 42 60 82.
	typ := [4]byte{'I', 'E', 'N', 'D'}
	got := Checksum(typ, nil)
	want := uint32(0xAE426082)
	if got != want {
		t.Errorf("Checksum(IEND, nil) = %#x, want %#x", got, want)
	}
}

func TestChecksumDeterministic(t *testing.T) {
	typ := [4]byte{'I', 'D', 'A', 'T'}
	data := []byte{1, 2, 3, 4, 5}
	a := Checksum(typ, data)
	b := Checksum(typ, data)
	if a != b {
		t.Errorf("Checksum not deterministic: %#x != %#x", a, b)
	}
}
