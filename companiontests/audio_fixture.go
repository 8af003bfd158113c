package companiontests

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

const (
	fixtureSampleRate    = 16000
	fixtureBitsPerSample = 16
	fixtureChannels      = 1
)

// wavHeader is the canonical 44-byte header of an uncompressed PCM WAV file.
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

// generateToneWAV returns a 16 kHz, 16-bit mono PCM WAV file containing a sine tone. Speech
// recognizers will not find words in it, but it is well-formed audio that an upload endpoint
// must accept without failing.
func generateToneWAV(duration time.Duration, frequency float64) []byte {
	numSamples := int(duration.Seconds() * fixtureSampleRate)
	blockAlign := fixtureChannels * fixtureBitsPerSample / 8
	dataSize := uint32(numSamples * blockAlign)

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   fixtureChannels,
		SampleRate:    fixtureSampleRate,
		ByteRate:      uint32(fixtureSampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: fixtureBitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	var buf bytes.Buffer
	buf.Grow(44 + int(dataSize))
	_ = binary.Write(&buf, binary.LittleEndian, header)
	samples := make([]int16, numSamples)
	for i := range samples {
		v := math.Sin(2 * math.Pi * frequency * float64(i) / fixtureSampleRate)
		samples[i] = int16(v * math.MaxInt16 * 0.3)
	}
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}
