package storage

import (
	"ascension-server/internal/domain"
	"ascension-server/pkg/logger"
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

const (
	MagicHeader string = `ASRP` // 4 байта
	Version1    uint32 = 1
	FileExt     string = ".asrp"
)

// ReplayFileHeader — точное представление заголовка файла в памяти.
// binary.Write пишет его целиком: тут нет слайсов и строк, только массивы и числа.
type ReplayFileHeader struct {
	Magic      [4]byte // 4 байта
	Version    uint32  // 4 байта
	Seed       uint32  // 4 байта
	Timestamp  int64   // 8 байт, unix ms
	EventCount uint32  // 4 байта
}

// EventHeader — заголовок каждой записи события (3 байта, без выравнивания)
type EventHeader struct {
	EventType  uint8  // 1
	PayloadLen uint16 // 2
}

// ReplayFile - лента решений одного рана, как она лежит на диске
type ReplayFile struct {
	Seed      uint32
	Timestamp int64
	Events    []domain.ReplayEvent
}

// ReplayService сохраняет и читает файлы реплеев в каталоге
type ReplayService struct {
	SaveDir string
	logger  *logrus.Entry
}

func NewReplayService(dir string) (*ReplayService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create replay dir: %w", err)
	}
	return &ReplayService{
		SaveDir: dir,
		logger:  logger.Log.WithFields(logrus.Fields{"component": "storage", "dir": dir}),
	}, nil
}

// Save пишет файл и возвращает путь к нему
func (s *ReplayService) Save(runID string, rf *ReplayFile) (string, error) {
	filename := fmt.Sprintf("replay_%d_%s_%d%s", rf.Seed, runID, rf.Timestamp, FileExt)
	path := filepath.Join(s.SaveDir, filepath.Base(filename))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := Encode(w, rf); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"path":   path,
		"events": len(rf.Events),
	}).Info("Replay saved.")
	return path, nil
}

// Encode пишет ленту в бинарном формате ASRP
func Encode(w io.Writer, rf *ReplayFile) error {
	if uint64(len(rf.Events)) > math.MaxUint32 {
		return fmt.Errorf("too many events: %d", len(rf.Events))
	}

	// 1. Глобальный заголовок
	header := ReplayFileHeader{
		Version:    Version1,
		Seed:       rf.Seed,
		Timestamp:  rf.Timestamp,
		EventCount: uint32(len(rf.Events)),
	}
	copy(header.Magic[:], MagicHeader)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// 2. События
	for i, ev := range rf.Events {
		t := ev.Type()
		if t == domain.ReplayUnknown {
			return fmt.Errorf("event #%d: unknown type %q", i, ev.T)
		}
		if ev.V != domain.ReplayVersion {
			return fmt.Errorf("event #%d: version %d cannot be stored in v%d file", i, ev.V, Version1)
		}
		payloadLen := len(ev.Payload)
		if payloadLen > math.MaxUint16 {
			return fmt.Errorf("event #%d: payload too long: %d", i, payloadLen)
		}

		eh := EventHeader{EventType: uint8(t), PayloadLen: uint16(payloadLen)}
		if err := binary.Write(w, binary.LittleEndian, &eh); err != nil {
			return err
		}
		if payloadLen > 0 {
			if _, err := w.Write(ev.Payload); err != nil {
				return err
			}
		}
	}

	return nil
}
