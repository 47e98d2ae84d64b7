package chunkcodec

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func sampleChunks() []Chunk {
	return []Chunk{
		{Type: NewChunkType(TypeIHDR), Data: make([]byte, 13)},
		{Type: NewChunkType(TypeIDAT), Data: []byte{1, 2, 3}},
		{Type: NewChunkType(TypeIEND), Data: nil},
	}
}

func TestWriteReadRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	chunks := sampleChunks()
	if err := Write(&buf, chunks); err != nil {
		t.Fatalf("Write: %v", err)
	}
	stream, warnings, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(stream.Chunks) != len(chunks) {
		t.Fatalf("got %d chunks, want %d", len(stream.Chunks), len(chunks))
	}
	for i, c := range stream.Chunks {
		if c.Type != chunks[i].Type || !bytes.Equal(c.Data, chunks[i].Data) {
			t.Errorf("chunk %d mismatch: got %+v want %+v", i, c, chunks[i])
		}
	}
}

func TestReadAllBadSignature(t *testing.T) {
	_, _, err := ReadAll(bytes.NewReader([]byte("not a png file..")))
	if err == nil {
		t.Fatal("expected error on bad signature")
	}
}

func TestReadAllTruncated(t *testing.T) {
	var buf bytes.Buffer
	_ = Write(&buf, sampleChunks())
	truncated := buf.Bytes()[:buf.Len()-5]
	_, _, err := ReadAll(bytes.NewReader(truncated))
	if err == nil {
		t.Fatal("expected error on truncated stream")
	}
}

func TestReadAllCrcMismatchCritical(t *testing.T) {
	var buf bytes.Buffer
	_ = Write(&buf, sampleChunks())
	raw := buf.Bytes()
	// Flip a byte inside the IDAT chunk's CRC field: sig(8) + IHDR(4+4+13+4=25)
	// + IDAT length/type/data (4+4+3=11) lands right at the start of its CRC.
	idatCrcOffset := 8 + 25 + 11
	raw[idatCrcOffset] ^= 0xFF
	_, _, err := ReadAll(bytes.NewReader(raw))
	if err == nil {
		t.Fatal("expected CRC mismatch error")
	}
}

func TestReadAllTolerantAncillary(t *testing.T) {
	chunks := []Chunk{
		{Type: NewChunkType(TypeIHDR), Data: make([]byte, 13)},
		{Type: NewChunkType("gAMA"), Data: []byte{0, 0, 0, 1}},
		{Type: NewChunkType(TypeIDAT), Data: []byte{1, 2, 3}},
		{Type: NewChunkType(TypeIEND), Data: nil},
	}
	var buf bytes.Buffer
	_ = Write(&buf, chunks)
	raw := buf.Bytes()
	// Corrupt the gAMA chunk's CRC (last 4 bytes of its framing).
	gamaCrcOffset := 8 + 8 + 13 + 12 + 4 // sig + IHDR header/data/crc + gAMA header/data up to crc
	raw[gamaCrcOffset] ^= 0xFF
	stream, warnings, err := ReadAll(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("expected tolerated ancillary CRC mismatch, got fatal error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if len(stream.Chunks) != len(chunks) {
		t.Fatalf("expected all chunks preserved despite warning")
	}
}

func TestReadAllTrailingDataAfterIEND(t *testing.T) {
	var buf bytes.Buffer
	_ = Write(&buf, sampleChunks())
	raw := append(buf.Bytes(), 0xDE, 0xAD, 0xBE, 0xEF)
	_, _, err := ReadAll(bytes.NewReader(raw))
	if errors.Cause(err) != ErrIendNotLast {
		t.Fatalf("expected ErrIendNotLast, got %v", err)
	}
}

func TestGetConcatenatedIDAT(t *testing.T) {
	chunks := []Chunk{
		{Type: NewChunkType(TypeIDAT), Data: []byte{1, 2}},
		{Type: NewChunkType(TypeIDAT), Data: []byte{3, 4}},
	}
	got := GetConcatenatedIDAT(chunks)
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("GetConcatenatedIDAT = %v, want [1 2 3 4]", got)
	}
}
