// Package audit provides the append-only execution log: one immutable
// JSONL record per hook execution attempt, hash-chained for tamper
// evidence, rotated once the active file exceeds a size threshold.
package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/taskhook-project/taskhook/pkg/jsonutil"
	"github.com/taskhook-project/taskhook/pkg/model"
)

// Appender is the sink the dispatcher writes execution records to. Tests
// substitute MemoryAppender.
type Appender interface {
	Append(rec *model.HookExecutionRecord) error
}

// FileAppender appends records to a JSONL file with a hash chain. Rotation
// is size-based with a bounded number of retained generations; the chain
// continues across rotations because the previous hash is tracked in
// memory once loaded.
type FileAppender struct {
	mu       sync.Mutex
	path     string
	writer   *lumberjack.Logger
	prevHash model.HashValue
	loaded   bool
}

// NewFileAppender creates a FileAppender writing to path. maxSizeMB is
// the rotation threshold, maxBackups bounds retained rotated generations.
func NewFileAppender(path string, maxSizeMB, maxBackups int) *FileAppender {
	return &FileAppender{
		path: path,
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		},
	}
}

// Append finalizes and writes one record: links it to the previous record,
// computes its own hash over canonical JSON, and appends one line.
func (a *FileAppender) Append(rec *model.HookExecutionRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("create audit dir: %w", err)
	}

	if !a.loaded {
		last, err := lastRecordHash(a.path)
		if err != nil {
			return err
		}
		a.prevHash = last
		a.loaded = true
	}

	if rec.RecordVersion == "" {
		rec.RecordVersion = model.RecordVersionCurrent
	}
	rec.PrevHash = a.prevHash

	hash, err := ComputeRecordHash(rec)
	if err != nil {
		return err
	}
	rec.RecordHash = hash

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	if _, err := a.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}

	a.prevHash = hash
	return nil
}

// Close releases the underlying log file.
func (a *FileAppender) Close() error {
	return a.writer.Close()
}

// ComputeRecordHash hashes a record over its canonical JSON form with the
// RecordHash field cleared.
func ComputeRecordHash(rec *model.HookExecutionRecord) (model.HashValue, error) {
	clone := *rec
	clone.RecordHash = ""

	data, err := jsonutil.CanonicalMarshal(&clone)
	if err != nil {
		return "", fmt.Errorf("canonical marshal: %w", err)
	}

	sum := sha256.Sum256(data)
	return model.HashValue(hex.EncodeToString(sum[:])), nil
}

// lastRecordHash scans the active log for the hash of its final record.
func lastRecordHash(path string) (model.HashValue, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	var last model.HashValue
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec model.HookExecutionRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue // skip malformed lines
		}
		last = rec.RecordHash
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan audit log: %w", err)
	}
	return last, nil
}

// MemoryAppender collects records in memory for tests.
type MemoryAppender struct {
	mu      sync.Mutex
	Records []*model.HookExecutionRecord
}

// Append stores the record.
func (m *MemoryAppender) Append(rec *model.HookExecutionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.RecordVersion == "" {
		rec.RecordVersion = model.RecordVersionCurrent
	}
	m.Records = append(m.Records, rec)
	return nil
}
