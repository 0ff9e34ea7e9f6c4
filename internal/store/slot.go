package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/speedtype/internal/model"
)

// ResultKey is the slot holding the latest result.
const ResultKey = "typingTestData"

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// ErrNoData is returned when the slot is absent or holds unreadable data.
var ErrNoData = errors.New("no test data")

// KV is a minimal key-value store.
type KV interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Slot stores a single Result under ResultKey. Each save overwrites the previous one.
type Slot struct {
	kv KV
}

// NewSlot wraps kv.
func NewSlot(kv KV) *Slot {
	return &Slot{kv: kv}
}

// ValidBackend reports whether name is a known backend.
func ValidBackend(name string) bool {
	switch strings.ToLower(name) {
	case BackendSQLite, BackendFile:
		return true
	}
	return false
}

// Open opens the slot for backend at path.
func Open(backend, path string) (*Slot, error) {
	switch strings.ToLower(backend) {
	case "", BackendSQLite:
		kv, err := OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return NewSlot(kv), nil
	case BackendFile:
		return NewSlot(NewFileStore(path)), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Close closes the underlying store.
func (s *Slot) Close() error {
	return s.kv.Close()
}

// Save writes res, replacing any stored result.
func (s *Slot) Save(ctx context.Context, res model.Result) error {
	data, err := Encode(res)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, ResultKey, data); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// Load reads the stored result. Absent or malformed data yields an error wrapping
// ErrNoData; other errors come from the store itself.
func (s *Slot) Load(ctx context.Context) (model.Result, error) {
	data, err := s.kv.Get(ctx, ResultKey)
	if err != nil {
		return model.Result{}, err
	}
	return Decode(data)
}

// Clear removes the stored result.
func (s *Slot) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, ResultKey)
}

type storedResult struct {
	WPM            *float64              `json:"wpm"`
	Accuracy       *float64              `json:"accuracy"`
	DetailedErrors []model.ErrorPosition `json:"detailedErrors"`
}

// Encode serializes res as {wpm, accuracy, detailedErrors}.
func Encode(res model.Result) ([]byte, error) {
	if res.DetailedErrors == nil {
		res.DetailedErrors = []model.ErrorPosition{}
	}
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return data, nil
}

// Decode parses a stored result, rejecting anything that is not a sensible one.
func Decode(data []byte) (model.Result, error) {
	var stored *storedResult
	if err := json.Unmarshal(data, &stored); err != nil {
		return model.Result{}, fmt.Errorf("malformed result: %v: %w", err, ErrNoData)
	}
	if stored == nil || stored.WPM == nil || stored.Accuracy == nil {
		return model.Result{}, fmt.Errorf("incomplete result: %w", ErrNoData)
	}
	if *stored.WPM < 0 || *stored.Accuracy < 0 || *stored.Accuracy > 100 {
		return model.Result{}, fmt.Errorf("result out of range: %w", ErrNoData)
	}
	res := model.Result{
		WPM:            int(*stored.WPM + 0.5),
		Accuracy:       *stored.Accuracy,
		DetailedErrors: stored.DetailedErrors,
	}
	if res.DetailedErrors == nil {
		res.DetailedErrors = []model.ErrorPosition{}
	}
	return res, nil
}
