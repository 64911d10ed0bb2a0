package source

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

const (
	s3mSignedSamples = 1
	s3mFlagLoop      = 1
	s3mFlag16Bit     = 4
)

// decodeS3M reads the instruments of a Scream Tracker 3 module.
func decodeS3M(r io.Reader) (*Bank, error) {
	songBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(songBytes) < 48 || string(songBytes[44:48]) != "SCRM" {
		return nil, ErrInvalidS3M
	}

	buf := bytes.NewReader(songBytes)
	title := make([]byte, 28)
	if _, err := io.ReadFull(buf, title); err != nil {
		return nil, err
	}
	bank := &Bank{Title: strings.TrimRight(string(title), "\x00")}

	header := struct {
		Pad             byte
		Filetype        byte
		_               uint16
		Length          uint16
		NumInstruments  uint16
		NumPatterns     uint16
		Flags           uint16
		Tracker         uint16
		SampleFormat    uint16  // 1 = signed, 2 = unsigned
		_               [4]byte // 'SCRM'
		Volume          uint8
		Speed           uint8
		Tempo           uint8
		MastVolume      uint8
		_               uint8
		Panning         uint8
		_               [8]byte
		_               [2]byte
		ChannelSettings [32]byte
	}{}
	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidS3M, err)
	}

	// Skip the orders, the instrument parapointers follow them
	if _, err := buf.Seek(int64(header.Length), io.SeekCurrent); err != nil {
		return nil, err
	}
	paras := make([]uint16, header.NumInstruments)
	if err := binary.Read(buf, binary.LittleEndian, paras); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidS3M, err)
	}

	bank.Samples = make([]Sample, len(paras))
	for i, para := range paras {
		smp, err := readS3MInstrument(buf, int64(para)*16, header.SampleFormat != s3mSignedSamples)
		if err != nil {
			return nil, fmt.Errorf("instrument %d: %w", i, err)
		}
		bank.Samples[i] = *smp
	}

	return bank, nil
}

func readS3MInstrument(buf *bytes.Reader, offset int64, unsigned bool) (*Sample, error) {
	if _, err := buf.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	instHeader := struct {
		Type         byte
		Filename     [12]byte // Firelight doc has this as 13 bytes
		MemSegHi     byte
		MemSegLo     uint16
		SampleLength uint16
		_            uint16
		LoopBegin    uint16
		_            uint16
		LoopEnd      uint16
		_            uint16
		Volume       byte
		_            byte
		Packing      byte // should be 0
		Flags        byte
		C2Speed      uint16 // really this should be called C4Speed
		_            uint16
		_            [12]byte
		Name         [28]byte
		Scrs         [4]byte // 'SCRS'
	}{}
	if err := binary.Read(buf, binary.LittleEndian, &instHeader); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidS3M, err)
	}
	if instHeader.Type > 1 {
		return nil, fmt.Errorf("%w: sample type %d", ErrUnsupportedFormat, instHeader.Type)
	}
	if instHeader.Flags&s3mFlag16Bit != 0 {
		return nil, fmt.Errorf("%w: 16-bit S3M samples", ErrUnsupportedFormat)
	}

	smp := &Sample{
		Name:   cleanName(strings.TrimRight(string(instHeader.Name[:]), "\x00")),
		Rate:   uint(instHeader.C2Speed),
		Volume: min(int(instHeader.Volume), 64),
	}
	if instHeader.Flags&s3mFlagLoop != 0 && instHeader.LoopEnd > instHeader.LoopBegin {
		smp.LoopStart = int(instHeader.LoopBegin)
		smp.LoopLen = int(instHeader.LoopEnd) - int(instHeader.LoopBegin)
	}

	dataOffset := int64(uint(instHeader.MemSegHi)<<16|uint(instHeader.MemSegLo)) * 16
	length := int(instHeader.SampleLength)
	if length > 0 {
		if dataOffset >= buf.Size() {
			return nil, fmt.Errorf("%w: sample data at %d is past the end of the file", ErrInvalidS3M, dataOffset)
		}
		length = min(length, int(buf.Size()-dataOffset))

		smp.Data = make([]int8, length)
		if _, err := buf.Seek(dataOffset, io.SeekStart); err != nil {
			return nil, err
		}
		if err := binary.Read(buf, binary.LittleEndian, smp.Data); err != nil {
			return nil, err
		}

		if unsigned {
			for j := range smp.Data {
				smp.Data[j] = int8(byte(smp.Data[j]) ^ 128)
			}
		}
	}
	fixLoop(smp)

	return smp, nil
}
