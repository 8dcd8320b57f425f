package capture

import (
	"bytes"
	"encoding/binary"
)

const wavHeaderSize = 44

// EncodeWAV wraps 16-bit PCM samples in a RIFF/WAVE container
func EncodeWAV(pcm []byte, format Format) []byte {
	var buf bytes.Buffer
	buf.Grow(wavHeaderSize + len(pcm))

	dataSize := uint32(len(pcm))
	blockAlign := uint16(format.Channels * 2)

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36)+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16)) // PCM chunk size
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))  // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(format.Channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(format.SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(format.BytesPerSecond()))
	_ = binary.Write(&buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataSize)
	buf.Write(pcm)

	return buf.Bytes()
}
