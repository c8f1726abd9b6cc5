package sarvam

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// joinWAV concatenates the PCM of several WAV chunks into one clip. Every chunk
// must share the first chunk's format.
func joinWAV(chunks [][]byte) ([]byte, error) {
	var (
		joined *goaudio.IntBuffer
		first  *wav.Decoder
	)
	for i, c := range chunks {
		dec := wav.NewDecoder(bytes.NewReader(c))
		if !dec.IsValidFile() {
			return nil, fmt.Errorf("chunk %d is not a wav file", i)
		}
		buf, err := dec.FullPCMBuffer()
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		if first == nil {
			first, joined = dec, buf
			continue
		}
		if dec.SampleRate != first.SampleRate || dec.NumChans != first.NumChans || dec.BitDepth != first.BitDepth {
			return nil, fmt.Errorf("chunk %d format %d Hz/%d ch/%d bit differs from first chunk", i, dec.SampleRate, dec.NumChans, dec.BitDepth)
		}
		joined.Data = append(joined.Data, buf.Data...)
	}
	if joined == nil {
		return nil, errors.New("no audio chunks")
	}

	out := &memFile{}
	enc := wav.NewEncoder(out, int(first.SampleRate), int(first.BitDepth), int(first.NumChans), int(first.WavAudioFormat))
	if err := enc.Write(joined); err != nil {
		return nil, fmt.Errorf("encode joined wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize joined wav: %w", err)
	}
	return out.buf, nil
}

// memFile is an in-memory io.WriteSeeker; the wav encoder seeks back to patch sizes.
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.pos + len(p); end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	n := copy(m.buf[m.pos:], p)
	m.pos += n
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var base int
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = m.pos
	case io.SeekEnd:
		base = len(m.buf)
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	next := base + int(offset)
	if next < 0 {
		return 0, errors.New("negative position")
	}
	m.pos = next
	return int64(next), nil
}
