// Package audio encodes synthesized sample buffers into container formats
// served by the HTTP layer.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavHeaderSize = 44
	bitsPerSample = 16
	numChannels   = 1
	formatPCM     = 1
)

// ErrInvalidSampleRate is returned when the sample rate is not positive.
var ErrInvalidSampleRate = errors.New("audio: sample rate must be positive")

// EncodeWAV writes mono float32 samples as a 16-bit PCM RIFF/WAVE file.
// Samples outside [-1, 1] are clipped and NaN becomes silence.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(toPCM16(s))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitsPerSample,
	}

	out := &memFile{buf: make([]byte, 0, wavHeaderSize+len(samples)*bitsPerSample/8)}
	enc := wav.NewEncoder(out, sampleRate, bitsPerSample, numChannels, formatPCM)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("audio: write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("audio: close wav: %w", err)
	}
	return out.buf, nil
}

func toPCM16(s float32) int16 {
	if math.IsNaN(float64(s)) {
		return 0
	}
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(math.Round(float64(s) * math.MaxInt16))
}

// DecodeFloat32LE converts a little-endian float32 byte stream into samples.
func DecodeFloat32LE(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, errors.New("audio: float32 stream length must be a multiple of 4")
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// memFile is an in-memory io.WriteSeeker. The encoder seeks back to patch
// the chunk sizes once the sample count is known.
type memFile struct {
	buf []byte
	off int
}

func (f *memFile) Write(p []byte) (int, error) {
	if end := f.off + len(p); end > len(f.buf) {
		f.buf = append(f.buf, make([]byte, end-len(f.buf))...)
	}
	n := copy(f.buf[f.off:], p)
	f.off += n
	return n, nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(f.off) + offset
	case io.SeekEnd:
		abs = int64(len(f.buf)) + offset
	default:
		return 0, errors.New("audio: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("audio: negative position")
	}
	f.off = int(abs)
	return abs, nil
}
