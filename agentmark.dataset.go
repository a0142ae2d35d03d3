package agentmark

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DatasetRowType tags rows produced by a dataset stream
const DatasetRowType = "dataset"

// DatasetRow is one formatted dataset entry
type DatasetRow struct {
	Type      string      `json:"type"`
	Dataset   DatasetItem `json:"dataset"`
	Evals     []string    `json:"evals"`
	Formatted any         `json:"formatted"`
}

// formatFunc formats one set of props through the prompt's adapter
type formatFunc func(ctx context.Context, props map[string]any, opts AdaptOptions) (any, error)

// DatasetStream formats a dataset row by row. It can be iterated once;
// the reader is closed when iteration ends for any reason. A stream that
// is never iterated must be closed with Close.
type DatasetStream struct {
	ctx    context.Context
	reader DatasetReader
	format formatFunc
	opts   AdaptOptions
	evals  []string
	path   string
	runID  string
	logger *zap.Logger

	mu        sync.Mutex
	err       error
	consumed  bool
	closeOnce sync.Once
	closeErr  error
}

func newDatasetStream(ctx context.Context, reader DatasetReader, format formatFunc, opts AdaptOptions,
	evals []string, path string, logger *zap.Logger) *DatasetStream {
	return &DatasetStream{
		ctx:    ctx,
		reader: reader,
		format: format,
		opts:   opts,
		evals:  evals,
		path:   path,
		runID:  uuid.NewString(),
		logger: logger,
	}
}

// RunID identifies this pass over the dataset in logs
func (s *DatasetStream) RunID() string {
	return s.runID
}

// All yields formatted rows in dataset order. A row that fails to format
// is logged and ends the sequence; Err reports it afterwards. A second
// call yields nothing.
func (s *DatasetStream) All() iter.Seq[DatasetRow] {
	return func(yield func(DatasetRow) bool) {
		s.mu.Lock()
		if s.consumed {
			s.mu.Unlock()
			return
		}
		s.consumed = true
		s.mu.Unlock()

		defer func() { _ = s.closeReader() }()

		s.logger.Debug(LogMsgDatasetStarted,
			zap.String(LogFieldRunID, s.runID),
			zap.String(LogFieldPath, s.path))

		rows := 0
		defer func() {
			s.logger.Debug(LogMsgDatasetFinished,
				zap.String(LogFieldRunID, s.runID),
				zap.Int(LogFieldRow, rows))
		}()

		for {
			item, err := s.reader.Next(s.ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				s.fail(rows, err)
				return
			}

			formatted, err := s.format(s.ctx, item.Input, s.opts)
			if err != nil {
				s.fail(rows, err)
				return
			}
			rows++

			row := DatasetRow{
				Type:      DatasetRowType,
				Dataset:   item,
				Evals:     append([]string{}, s.evals...),
				Formatted: formatted,
			}
			if !yield(row) {
				return
			}
		}
	}
}

// Collect drains the stream into a slice
func (s *DatasetStream) Collect() ([]DatasetRow, error) {
	var rows []DatasetRow
	for row := range s.All() {
		rows = append(rows, row)
	}
	return rows, s.Err()
}

// Close releases the dataset reader. It is safe to call more than once
// and after iteration; a closed stream yields no rows.
func (s *DatasetStream) Close() error {
	s.mu.Lock()
	s.consumed = true
	s.mu.Unlock()
	return s.closeReader()
}

func (s *DatasetStream) closeReader() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.reader.Close()
	})
	return s.closeErr
}

// Err returns the error that ended iteration, if any
func (s *DatasetStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *DatasetStream) fail(row int, err error) {
	s.logger.Error(LogMsgDatasetRowFailed,
		zap.String(LogFieldRunID, s.runID),
		zap.Int(LogFieldRow, row),
		zap.Error(err))

	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
