package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// ErrNotFound запись не найдена
var ErrNotFound = errors.New("replay: запись не найдена")

const keyPrefix = "replay:"

// Store хранилище записей в BadgerDB. Значения это JSON, сжатый zstd.
type Store struct {
	db      *badger.DB
	mu      sync.RWMutex
	isReady bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Summary краткие сведения о записи
type Summary struct {
	ID       string
	Level    string
	Frames   int
	Finished bool
}

// Open открывает хранилище в dir. level уровень сжатия zstd от 1 до 4.
func Open(dir string, level int) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	if level < int(zstd.SpeedFastest) || level > int(zstd.SpeedBestCompression) {
		level = int(zstd.SpeedDefault)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevel(level)))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &Store{db: db, isReady: true, encoder: enc, decoder: dec}, nil
}

// Close закрывает хранилище
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}

// Save сохраняет запись под её ID
func (s *Store) Save(r *Replay) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи: %w", err)
	}
	packed := s.encoder.EncodeAll(data, nil)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+r.ID), packed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Load читает запись по ID
func (s *Store) Load(id string) (*Replay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var packed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if err != nil {
			return err
		}
		packed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	return s.decode(packed)
}

func (s *Store) decode(packed []byte) (*Replay, error) {
	data, err := s.decoder.DecodeAll(packed, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки записи: %w", err)
	}
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("ошибка десериализации записи: %w", err)
	}
	return &r, nil
}

// List перечисляет записи, упорядоченные по ID
func (s *Store) List() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var out []Summary
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			packed, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			r, err := s.decode(packed)
			if err != nil {
				return err
			}
			out = append(out, Summary{ID: r.ID, Level: r.Level, Frames: len(r.Frames), Finished: r.Finished})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода BadgerDB: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete удаляет запись
func (s *Store) Delete(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + id))
	})
}
