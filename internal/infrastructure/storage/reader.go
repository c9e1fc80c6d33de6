package storage

import (
	"ascension-server/internal/domain"
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrInvalidMagic - файл не является реплеем
var ErrInvalidMagic = errors.New("invalid magic")

func (s *ReplayService) Load(path string) (*ReplayFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(bufio.NewReader(f))
}

// Decode читает ленту из бинарного формата ASRP
func Decode(r io.Reader) (*ReplayFile, error) {
	// 1. Заголовок целиком
	var header ReplayFileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Magic[:]) != MagicHeader {
		return nil, ErrInvalidMagic
	}
	if header.Version != Version1 {
		return nil, fmt.Errorf("%w: file v%d, expected v%d", domain.ErrVersionMismatch, header.Version, Version1)
	}

	rf := &ReplayFile{
		Seed:      header.Seed,
		Timestamp: header.Timestamp,
	}

	// 2. События. Счетчику из заголовка не верим на слово: память растет по мере чтения.
	for i := uint32(0); i < header.EventCount; i++ {
		var eh EventHeader
		if err := binary.Read(r, binary.LittleEndian, &eh); err != nil {
			return nil, fmt.Errorf("event #%d: %w", i, err)
		}

		t := domain.ReplayEventType(eh.EventType)
		if t.String() == "unknown" {
			return nil, fmt.Errorf("event #%d: unknown type code %d", i, eh.EventType)
		}

		ev := domain.ReplayEvent{V: domain.ReplayVersion, T: t.String()}
		if eh.PayloadLen > 0 {
			payload := make([]byte, eh.PayloadLen)
			if _, err := io.ReadFull(r, payload); err != nil {
				return nil, fmt.Errorf("event #%d payload: %w", i, err)
			}
			ev.Payload = payload
		} else {
			ev.Payload = json.RawMessage{}
		}

		rf.Events = append(rf.Events, ev)
	}

	return rf, nil
}
