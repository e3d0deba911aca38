package speech

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"mime"
	"strconv"
	"strings"
)

const (
	defaultSampleRate = 24000
	bitsPerSample     = 16
	channels          = 1
)

// toPlayable returns audio a browser can play. Raw linear PCM
// ("audio/L16;rate=24000" or "audio/pcm") is wrapped in a WAV container;
// other formats pass through.
func toPlayable(data []byte, mimeType string) ([]byte, string, error) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return nil, "", fmt.Errorf("parse audio type %q: %w", mimeType, err)
	}
	switch strings.ToLower(mediaType) {
	case "audio/l16", "audio/pcm":
	default:
		return data, mediaType, nil
	}

	rate := defaultSampleRate
	if r, ok := params["rate"]; ok {
		n, err := strconv.Atoi(r)
		if err != nil || n <= 0 {
			return nil, "", fmt.Errorf("invalid sample rate %q", r)
		}
		rate = n
	}
	return wrapPCM(data, rate), "audio/wav", nil
}

// wrapPCM prefixes 16-bit mono little-endian PCM with a RIFF/WAVE header.
func wrapPCM(pcm []byte, sampleRate int) []byte {
	dataSize := len(pcm)
	blockAlign := channels * bitsPerSample / 8
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(pcm)
	return buf.Bytes()
}
