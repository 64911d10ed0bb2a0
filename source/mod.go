package source

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

const (
	modSamples      = 31
	modRows         = 64
	modBytesPerNote = 4
	modMaxVolume    = 64
)

// This is the equivalent S3M C4Speed for the MOD finetune value
// This should be indexed by the low nibble of the finetune byte
// Taken from fs3mdoc.txt
var fineTuning = []uint{
	8363, 8413, 8463, 8529, 8581, 8651, 8723, 8757,
	7895, 7941, 7985, 8046, 8107, 8169, 8232, 8280,
}

// decodeMOD reads the instruments of a ProTracker style MOD file.
func decodeMOD(r io.Reader) (*Bank, error) {
	songBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewReader(songBytes)

	title := make([]byte, 20)
	if _, err := io.ReadFull(buf, title); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMOD, err)
	}
	bank := &Bank{
		Title:   cleanName(string(title)),
		Samples: make([]Sample, modSamples),
	}

	// Read sample information (sample data is read later)
	lengths := make([]int, modSamples)
	for i := range bank.Samples {
		s, length, err := readMODSampleInfo(buf)
		if err != nil {
			return nil, err
		}
		bank.Samples[i] = *s
		lengths[i] = length
	}

	orders := struct {
		Orders    uint8
		_         uint8
		OrderData [128]byte
	}{}
	if err := binary.Read(buf, binary.BigEndian, &orders); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMOD, err)
	}

	// The number of patterns is one more than the highest pattern in the
	// order table
	patterns := 0
	for _, p := range orders.OrderData {
		patterns = max(patterns, int(p))
	}
	patterns++

	sig := make([]byte, 4)
	if _, err := io.ReadFull(buf, sig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMOD, err)
	}
	channels, err := modChannels(sig)
	if err != nil {
		return nil, err
	}

	// Skip the pattern data
	patternBytes := int64(patterns * modRows * channels * modBytesPerNote)
	if patternBytes > int64(buf.Len()) {
		return nil, fmt.Errorf("%w: %d patterns do not fit in the file", ErrInvalidMOD, patterns)
	}
	if _, err := buf.Seek(patternBytes, io.SeekCurrent); err != nil {
		return nil, err
	}

	for i := range bank.Samples {
		// Some MOD files store a sample length longer than what remains in the
		// file, e.g. believe.mod sample index 8 has a recorded length of 2358 but
		// only 2353 bytes remain. Read in the max available.
		n := min(lengths[i], buf.Len())

		smp := &bank.Samples[i]
		smp.Data = make([]int8, n)
		if err := binary.Read(buf, binary.LittleEndian, smp.Data); err != nil {
			return nil, err
		}
		fixLoop(smp)
	}

	return bank, nil
}

// modChannels detects the number of channels from a MOD signature.
func modChannels(sig []byte) (int, error) {
	switch string(sig[2:]) {
	case "K.", "K!": // M.K. M!K!
		return 4, nil
	case "HN": // xCHN, x = number of channels
		if sig[0] >= '1' && sig[0] <= '9' {
			return int(sig[0] - '0'), nil
		}
	case "CH": // xxCH, xx = number of channels as two digit decimal
		if isDigit(sig[0]) && isDigit(sig[1]) {
			return int(sig[0]-'0')*10 + int(sig[1]-'0'), nil
		}
	}
	return 0, fmt.Errorf("%w: unrecognized signature %q", ErrInvalidMOD, sig)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func readMODSampleInfo(r io.Reader) (*Sample, int, error) {
	data := struct {
		Name      [22]byte
		Length    uint16
		FineTune  uint8
		Volume    uint8
		LoopStart uint16
		LoopLen   uint16
	}{}
	if err := binary.Read(r, binary.BigEndian, &data); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidMOD, err)
	}

	smp := &Sample{
		Name:      cleanName(string(data.Name[:])),
		Rate:      fineTuning[data.FineTune&0xF],
		Volume:    min(int(data.Volume), modMaxVolume),
		LoopStart: int(data.LoopStart) * 2,
		LoopLen:   int(data.LoopLen) * 2,
	}
	// A loop length of 2 bytes is ProTracker for "no loop"
	if smp.LoopLen < 4 {
		smp.LoopLen = 0
	}

	return smp, int(data.Length) * 2, nil
}

// fixLoop keeps the loop inside the sample data. If the loop overshoots the
// end it is first moved back, then clamped. This logic lifted from
// MilkyTracker.
func fixLoop(smp *Sample) {
	length := len(smp.Data)
	if smp.LoopStart+smp.LoopLen > length {
		dx := smp.LoopStart + smp.LoopLen - length
		smp.LoopStart = max(smp.LoopStart-dx, 0)
		if smp.LoopStart+smp.LoopLen > length {
			smp.LoopLen = length - smp.LoopStart
		}
	}
	if smp.LoopLen < 2 {
		smp.LoopStart, smp.LoopLen = 0, 0
	}
}

// Strips trailing 0x00 bytes and replaces any non ASCII character with a space
func cleanName(in string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r > 127 {
			return ' '
		}
		return r
	}, strings.TrimRight(in, "\x00"))
}
