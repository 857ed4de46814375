package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultHistoryLimit = 200
	historyTempPattern  = ".runs-*.toml.tmp"
)

// HistoryRepository keeps the most recent invocations in a TOML ledger.
type HistoryRepository struct {
	path  string
	limit int
	mu    *sync.RWMutex
}

var _ ports.RunRepository = (*HistoryRepository)(nil)

func NewHistoryRepository(path string, limit int) (*HistoryRepository, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	return &HistoryRepository{path: path, limit: limit, mu: lockForPath(path)}, nil
}

// Append records a run and drops the oldest entries past the limit.
func (r *HistoryRepository) Append(ctx context.Context, record domain.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	file.Runs = append(file.Runs, toRunSchema(record))
	if excess := len(file.Runs) - r.limit; excess > 0 {
		file.Runs = file.Runs[excess:]
	}

	return r.writeSchema(file)
}

func (r *HistoryRepository) GetByID(ctx context.Context, id string) (domain.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.RunRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.RunRecord{}, err
	}

	for _, run := range file.Runs {
		if run.ID == id {
			return fromRunSchema(run), nil
		}
	}

	return domain.RunRecord{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
}

// List returns matching runs, newest first.
func (r *HistoryRepository) List(ctx context.Context, filter domain.RunFilter) ([]domain.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	records := make([]domain.RunRecord, 0, len(file.Runs))
	for i := len(file.Runs) - 1; i >= 0; i-- {
		record := fromRunSchema(file.Runs[i])
		if !filter.Matches(record) {
			continue
		}
		records = append(records, record)
		if filter.Limit > 0 && len(records) == filter.Limit {
			break
		}
	}

	return records, nil
}

func (r *HistoryRepository) readSchema() (historySchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return historySchema{Version: currentHistoryVersion}, nil
		}
		return historySchema{}, fmt.Errorf("read history file: %w", err)
	}

	var file historySchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return historySchema{}, fmt.Errorf("decode history file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return historySchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *HistoryRepository) writeSchema(file historySchema) error {
	file.applyDefaults()

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode history file: %w", err)
	}

	if err := writeFileAtomic(r.path, data, historyTempPattern); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}

	return nil
}
