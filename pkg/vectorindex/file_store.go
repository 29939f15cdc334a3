package vectorindex

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// metaLine is one JSONL row of the file-backed store's metadata
// sidecar. The binary sidecar holds the matching float32 vectors,
// packed contiguously in the same row order.
type metaLine struct {
	ContentHash string `json:"content_hash"`
	Text        string `json:"text"`
	Metadata    string `json:"metadata"`
	Dimensions  int    `json:"dimensions"`
}

// FileStore is the JSONL-metadata + packed-float32-binary backend.
// Each sidecar is written and synced to a `.tmp` sibling, then renamed
// into place, so neither file is ever left half-written. The two renames
// are separate steps: a crash between them can leave the new metadata
// file beside the previous vector file.
type FileStore struct {
	metaPath   string
	vectorPath string

	mu         sync.RWMutex
	rows       []Record
	seenHashes map[string]bool
	dimensions int
}

// OpenFileStore loads an existing (metaPath, vectorPath) pair if present,
// or starts empty.
func OpenFileStore(metaPath, vectorPath string) (*FileStore, error) {
	s := &FileStore{
		metaPath:   metaPath,
		vectorPath: vectorPath,
		seenHashes: make(map[string]bool),
	}
	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	metaFile, err := os.Open(s.metaPath)
	if err != nil {
		return errs.New(errs.KindPersistence, "vectorindex.file", "open metadata", err)
	}
	defer metaFile.Close()

	vecFile, err := os.Open(s.vectorPath)
	if err != nil {
		return errs.New(errs.KindPersistence, "vectorindex.file", "open vector binary", err)
	}
	defer vecFile.Close()

	scanner := bufio.NewScanner(metaFile)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var line metaLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return errs.New(errs.KindPersistence, "vectorindex.file", "parse metadata line", err)
		}
		vec := make([]float32, line.Dimensions)
		buf := make([]byte, 4*line.Dimensions)
		if _, err := ioReadFull(vecFile, buf); err != nil {
			return errs.New(errs.KindPersistence, "vectorindex.file", "read vector bytes", err)
		}
		for i := 0; i < line.Dimensions; i++ {
			bits := binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
			vec[i] = math.Float32frombits(bits)
		}
		s.rows = append(s.rows, Record{
			ContentHash: line.ContentHash, Text: line.Text, Metadata: line.Metadata, Vector: vec,
		})
		s.seenHashes[line.ContentHash] = true
		if s.dimensions == 0 {
			s.dimensions = line.Dimensions
		}
	}
	return scanner.Err()
}

// AddBatch appends rows not already present (by ContentHash), then
// atomically rewrites both sidecars.
func (s *FileStore) AddBatch(ctx context.Context, rows []Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range rows {
		if s.seenHashes[r.ContentHash] {
			continue
		}
		if err := validateDimensions(s.dimensions, r.Vector); err != nil {
			return added, err
		}
		s.rows = append(s.rows, r)
		s.seenHashes[r.ContentHash] = true
		if s.dimensions == 0 {
			s.dimensions = len(r.Vector)
		}
		added++
	}
	if added > 0 {
		if err := s.persist(); err != nil {
			return added, err
		}
	}
	return added, nil
}

func (s *FileStore) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.metaPath), 0o755); err != nil {
		return errs.New(errs.KindPersistence, "vectorindex.file", "mkdir", err)
	}

	metaTmp := s.metaPath + ".tmp"
	vecTmp := s.vectorPath + ".tmp"

	metaFile, err := os.Create(metaTmp)
	if err != nil {
		return errs.New(errs.KindPersistence, "vectorindex.file", "create metadata tmp", err)
	}
	vecFile, err := os.Create(vecTmp)
	if err != nil {
		metaFile.Close()
		return errs.New(errs.KindPersistence, "vectorindex.file", "create vector tmp", err)
	}

	writer := bufio.NewWriter(metaFile)
	vecWriter := bufio.NewWriter(vecFile)
	for _, r := range s.rows {
		line := metaLine{ContentHash: r.ContentHash, Text: r.Text, Metadata: r.Metadata, Dimensions: len(r.Vector)}
		b, err := json.Marshal(line)
		if err != nil {
			metaFile.Close()
			vecFile.Close()
			return errs.New(errs.KindPersistence, "vectorindex.file", "marshal metadata line", err)
		}
		if _, err := writer.Write(append(b, '\n')); err != nil {
			metaFile.Close()
			vecFile.Close()
			return errs.New(errs.KindPersistence, "vectorindex.file", "write metadata line", err)
		}
		buf := make([]byte, 4*len(r.Vector))
		for i, f := range r.Vector {
			binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(f))
		}
		if _, err := vecWriter.Write(buf); err != nil {
			metaFile.Close()
			vecFile.Close()
			return errs.New(errs.KindPersistence, "vectorindex.file", "write vector bytes", err)
		}
	}
	if err := writer.Flush(); err != nil {
		metaFile.Close()
		vecFile.Close()
		return errs.New(errs.KindPersistence, "vectorindex.file", "flush metadata", err)
	}
	if err := vecWriter.Flush(); err != nil {
		metaFile.Close()
		vecFile.Close()
		return errs.New(errs.KindPersistence, "vectorindex.file", "flush vector", err)
	}
	if err := metaFile.Sync(); err != nil {
		metaFile.Close()
		vecFile.Close()
		return errs.New(errs.KindPersistence, "vectorindex.file", "sync metadata", err)
	}
	if err := vecFile.Sync(); err != nil {
		metaFile.Close()
		vecFile.Close()
		return errs.New(errs.KindPersistence, "vectorindex.file", "sync vector", err)
	}
	metaFile.Close()
	vecFile.Close()

	if err := os.Rename(metaTmp, s.metaPath); err != nil {
		return errs.New(errs.KindPersistence, "vectorindex.file", "rename metadata", err)
	}
	if err := os.Rename(vecTmp, s.vectorPath); err != nil {
		return errs.New(errs.KindPersistence, "vectorindex.file", "rename vector", err)
	}
	return nil
}

// Search returns the topK rows most similar to query.
func (s *FileStore) Search(ctx context.Context, query []float32, k int) ([]ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dimensions != 0 && len(query) != s.dimensions {
		return nil, errs.New(errs.KindIngestFailure, "vectorindex.file", "query dimension mismatch", nil)
	}
	candidates := make([]ScoredRecord, 0, len(s.rows))
	for _, r := range s.rows {
		candidates = append(candidates, ScoredRecord{Record: r, Score: cosineSimilarity(query, r.Vector)})
	}
	return topK(candidates, k), nil
}

// Len reports the current row count.
func (s *FileStore) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

// Dimensions reports the fixed vector width, or 0 if empty.
func (s *FileStore) Dimensions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimensions, nil
}

func ioReadFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			if n > 0 && total == len(buf) {
				return total, nil
			}
			return total, fmt.Errorf("read vector binary: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
