package encoder

import (
	"bytes"
	"encoding/binary"
	"sync"
)

const wavHeaderSize = 44

// WAVEncoder writes a canonical 44-byte RIFF/WAVE header followed by raw
// little-endian PCM16. Sizes in the header are patched on Close.
type WAVEncoder struct {
	buf         bytes.Buffer
	totalFrames uint64
	mu          sync.Mutex
}

func NewWAV() *WAVEncoder {
	e := &WAVEncoder{}
	e.writeHeader()
	return e
}

func (e *WAVEncoder) writeHeader() {
	var h [wavHeaderSize]byte
	copy(h[0:4], "RIFF")
	// h[4:8] chunk size, patched on Close
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:24], Channels)
	binary.LittleEndian.PutUint32(h[24:28], SampleRate)
	byteRate := uint32(SampleRate * Channels * BitsPerSample / 8)
	binary.LittleEndian.PutUint32(h[28:32], byteRate)
	binary.LittleEndian.PutUint16(h[32:34], Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(h[34:36], BitsPerSample)
	copy(h[36:40], "data")
	// h[40:44] data size, patched on Close
	e.buf.Write(h[:])
}

func (e *WAVEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	data := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	e.buf.Write(data)
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WAVEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b := e.buf.Bytes()
	dataSize := uint32(len(b) - wavHeaderSize)
	binary.LittleEndian.PutUint32(b[4:8], 36+dataSize)
	binary.LittleEndian.PutUint32(b[40:44], dataSize)
	return nil
}

func (e *WAVEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *WAVEncoder) TotalFrames() uint64 {
	return e.totalFrames
}
