package audio

import (
	"bytes"
	"encoding/binary"
)

// Container identifies how an utterance's audio bytes are packaged.
type Container string

const (
	ContainerWAV     Container = "wav"
	ContainerFLAC    Container = "flac"
	ContainerOgg     Container = "ogg"
	ContainerWebM    Container = "webm"
	ContainerMP3     Container = "mp3"
	ContainerMP4     Container = "m4a"
	ContainerUnknown Container = ""
)

var ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

// DetectContainer sniffs the magic bytes at the start of data.
func DetectContainer(data []byte) Container {
	switch {
	case IsWAV(data):
		return ContainerWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return ContainerFLAC
	case bytes.HasPrefix(data, []byte("OggS")):
		return ContainerOgg
	case bytes.HasPrefix(data, ebmlMagic):
		return ContainerWebM
	case bytes.HasPrefix(data, []byte("ID3")), isMPEGFrame(data):
		return ContainerMP3
	case len(data) >= 8 && string(data[4:8]) == "ftyp":
		return ContainerMP4
	default:
		return ContainerUnknown
	}
}

// isMPEGFrame checks for an MPEG audio frame header: sync bits, a defined
// layer and a valid bitrate index.
func isMPEGFrame(data []byte) bool {
	return len(data) >= 3 &&
		data[0] == 0xFF && data[1]&0xE0 == 0xE0 &&
		data[1]&0x06 != 0 &&
		data[2]>>4 != 0x0F
}

// Extension returns a file extension for c, including the dot.
func (c Container) Extension() string {
	if c == ContainerUnknown {
		return ".wav"
	}
	return "." + string(c)
}

// OggOpusSampleRate reads the input sample rate from the OpusHead packet of an
// Ogg stream, or 0 when the first page does not carry one.
func OggOpusSampleRate(data []byte) int {
	const pageHeader = 27
	if len(data) < pageHeader || !bytes.HasPrefix(data, []byte("OggS")) {
		return 0
	}
	payload := pageHeader + int(data[26])
	if len(data) < payload+16 || string(data[payload:payload+8]) != "OpusHead" {
		return 0
	}
	return int(binary.LittleEndian.Uint32(data[payload+12 : payload+16]))
}
