package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wavHeader is the 44-byte canonical RIFF/WAVE header for PCM data
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// EncodeWAV wraps a finished capture buffer in a WAV container. The capture
// core itself only deals in raw PCM; this is a convenience for callers that
// want to persist or replay a recording.
func EncodeWAV(d Data) ([]byte, error) {
	if len(d.PCM) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio buffer")
	}
	if d.Config.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", d.Config.SampleRate)
	}
	if d.Config.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth for WAV encoding: %d", d.Config.BitDepth)
	}

	channels := uint16(d.Config.Channels)
	bits := uint16(d.Config.BitDepth)
	dataSize := uint32(len(d.PCM))

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   channels,
		SampleRate:    uint32(d.Config.SampleRate),
		ByteRate:      uint32(d.Config.BytesPerSecond()),
		BlockAlign:    channels * bits / 8,
		BitsPerSample: bits,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(d.PCM)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	if _, err := buf.Write(d.PCM); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	return buf.Bytes(), nil
}
