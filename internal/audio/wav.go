package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// ErrNotPCM means the data is not a 16-bit PCM RIFF/WAVE file.
var ErrNotPCM = errors.New("audio: not a 16-bit PCM wav")

// Format describes interleaved little-endian PCM.
type Format struct {
	Channels   int
	SampleRate int
	Bits       int
}

// BlockAlign is the size of one frame in bytes.
func (f Format) BlockAlign() int { return f.Channels * f.Bits / 8 }

// ByteRate is the number of PCM bytes per second.
func (f Format) ByteRate() int { return f.SampleRate * f.BlockAlign() }

// ParseWAV returns the format and PCM payload of a RIFF/WAVE file. A data
// chunk whose size runs past the end of the input is clamped, which is what
// a recording written before its final size was known looks like.
func ParseWAV(data []byte) (Format, []byte, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return Format{}, nil, ErrNotPCM
	}
	var (
		f      Format
		gotFmt bool
	)
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 || binary.LittleEndian.Uint16(data[body:body+2]) != 1 {
				return Format{}, nil, ErrNotPCM
			}
			f.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			f.Bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			gotFmt = true
		case "data":
			if !gotFmt || f.Bits != 16 || f.Channels <= 0 || f.SampleRate <= 0 {
				return Format{}, nil, ErrNotPCM
			}
			return f, data[body : body+size], nil
		}
		off = body + size + size%2
	}
	return Format{}, nil, ErrNotPCM
}

// EncodeWAV wraps PCM in a canonical 44-byte header.
func EncodeWAV(pcm []byte, f Format) []byte {
	buf := make([]byte, 44+len(pcm))
	putHeader(buf, f, len(pcm))
	copy(buf[44:], pcm)
	return buf
}

func putHeader(buf []byte, f Format, size int) {
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+size))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(f.ByteRate()))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(f.BlockAlign()))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(f.Bits))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(size))
}
