// Package build implements the concurrent ingestion pipeline that turns a
// text file into a filled dict.Dictionary and column.Column.
package build

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dictcol/dictcol/column"
	"github.com/dictcol/dictcol/dict"
	"github.com/dictcol/dictcol/errs"
	"github.com/dictcol/dictcol/internal/options"
	"github.com/dictcol/dictcol/internal/pool"
)

// Reference defaults from the original single-threaded-chunk design: a 10MiB
// chunk byte budget, a line budget derived from an assumed ~16 byte average
// line length, and a 100-entry writer batch.
const (
	DefaultChunkByteBudget = 10 * 1024 * 1024
	DefaultBatchSize       = 100
	defaultAvgLineLen      = 16

	// maxLineBytes bounds how long a single input line may be during the
	// size probe before countLines gives up growing its scan buffer.
	maxLineBytes = 64 * 1024 * 1024
)

// ProgressFunc is called at most once per chunk with the cumulative number
// of lines processed so far and the input's total line count, as measured
// by the size probe. It is a best-effort side channel: panics
// inside it are recovered and ignored, and it must never abort a build.
type ProgressFunc func(processedLines, totalLines int)

// Result holds the Dictionary and Encoded column produced by a successful
// Build. Originals is nil unless WithRetainOriginals was passed; it holds
// one entry per input line, required by the baseline search variant.
type Result struct {
	Dictionary *dict.Dictionary
	Column     *column.Column
	Originals  []string
}

// config holds the resolved options for a single Build call.
type config struct {
	workers         int
	chunkByteBudget int
	batchSize       int
	dictionaryCap   int
	retainOriginals bool
	progress        ProgressFunc
}

// BuildOption configures a Build call.
type BuildOption = options.Option[*config]

// WithWorkers sets W, the number of worker goroutines dispatched per chunk.
// Must be >= 1.
func WithWorkers(w int) BuildOption {
	return options.New(func(c *config) error {
		if w < 1 {
			return fmt.Errorf("%w: workers must be >= 1, got %d", errs.ErrInvalidConfig, w)
		}
		c.workers = w
		return nil
	})
}

// WithChunkByteBudget overrides the default 10MiB chunk byte budget.
func WithChunkByteBudget(n int) BuildOption {
	return options.New(func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: chunk byte budget must be positive, got %d", errs.ErrInvalidConfig, n)
		}
		c.chunkByteBudget = n
		return nil
	})
}

// WithBatchSize overrides the default 100-entry writer batch.
func WithBatchSize(n int) BuildOption {
	return options.New(func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: batch size must be positive, got %d", errs.ErrInvalidConfig, n)
		}
		c.batchSize = n
		return nil
	})
}

// WithDictionaryCapacity sets the Dictionary's insert ceiling. n must be
// positive; without this option the Dictionary uses dict.DefaultCapacity.
func WithDictionaryCapacity(n int) BuildOption {
	return options.New(func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: dictionary capacity must be positive, got %d", errs.ErrInvalidConfig, n)
		}
		c.dictionaryCap = n
		return nil
	})
}

// WithRetainOriginals keeps a copy of every input line alongside the
// Encoded column, at the cost of roughly doubling memory, so that the
// baseline exact/prefix search variants become available. Off by default.
func WithRetainOriginals() BuildOption {
	return options.NoError(func(c *config) { c.retainOriginals = true })
}

// WithProgress registers a best-effort progress callback invoked at most
// once per chunk.
func WithProgress(fn ProgressFunc) BuildOption {
	return options.NoError(func(c *config) { c.progress = fn })
}

func defaultConfig() *config {
	return &config{
		workers:         1,
		chunkByteBudget: DefaultChunkByteBudget,
		batchSize:       DefaultBatchSize,
	}
}

// Build reads path line by line and returns a filled Dictionary and Encoded
// column. An I/O failure on path, a dictionary-full condition, or a worker
// failure is fatal and returned to the caller; the returned Result is nil
// in every failure case.
func Build(path string, opts ...BuildOption) (*Result, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	totalLines, err := countLines(path)
	if err != nil {
		return nil, err
	}

	dictOpts := []dict.DictionaryOption{}
	if cfg.dictionaryCap > 0 {
		dictOpts = append(dictOpts, dict.WithCapacity(cfg.dictionaryCap))
	}
	dictOpts = append(dictOpts, dict.WithReserve(proportionalReserve(totalLines, cfg.dictionaryCap)))

	d, err := dict.New(dictOpts...)
	if err != nil {
		return nil, err
	}

	col := column.New(totalLines)

	var originals []string
	if cfg.retainOriginals {
		originals = make([]string, totalLines)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrInputUnavailable, path, err)
	}
	defer f.Close()

	cr := newChunkReader(f)
	defer cr.release()

	processedLines := 0
	for {
		lines, release, eof, err := readChunk(cr, cfg.chunkByteBudget)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errs.ErrInputUnavailable, path, err)
		}
		if len(lines) == 0 {
			release()
			break
		}

		chunkStart := processedLines
		chunkErr := processChunk(d, col, originals, lines, chunkStart, cfg.workers, cfg.batchSize)
		release()
		if chunkErr != nil {
			return nil, chunkErr
		}

		processedLines += len(lines)
		reportProgress(cfg.progress, processedLines, totalLines)

		if eof {
			break
		}
	}

	return &Result{Dictionary: d, Column: col, Originals: originals}, nil
}

// reportProgress invokes fn, recovering and discarding any panic so a
// caller-supplied callback can never abort a build.
func reportProgress(fn ProgressFunc, processed, total int) {
	if fn == nil {
		return
	}
	defer func() { _ = recover() }()
	fn(processed, total)
}

// proportionalReserve sizes the Dictionary's initial reservation relative
// to the input's line count rather than unconditionally reserving the full
// capacity ceiling, avoiding pathological over-allocation for small inputs.
func proportionalReserve(totalLines, capacityCeiling int) int {
	const assumedDistinctFraction = 4 // heuristic: 1 distinct value per ~4 lines
	reserve := totalLines / assumedDistinctFraction
	if reserve < 16 {
		reserve = 16
	}
	if capacityCeiling > 0 && reserve > capacityCeiling {
		reserve = capacityCeiling
	}
	return reserve
}

// countLines performs the size probe: a single streaming pass counting
// newline-terminated lines. A trailing unterminated line (no final
// newline) still counts as one line.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errs.ErrInputUnavailable, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, pool.ChunkBufferDefaultSize), maxLineBytes)

	count := 0
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errs.ErrInputUnavailable, path, err)
	}

	return count, nil
}

// readChunk reads lines from cr into a chunk until either the chunk byte
// budget is exceeded or the derived line budget (chunk byte budget /
// average assumed line length) is reached. It returns the chunk's lines
// with trailing newlines stripped, a release function the caller must call
// once the chunk's lines are no longer needed, and whether the underlying
// reader is exhausted.
//
// The returned slice is borrowed from pool.GetStringSlice at the line
// budget's full size and trimmed to the number of lines actually read;
// release returns the backing array to the pool for the next chunk. cr's
// own pool.ByteBuffer stages the chunk's raw bytes and outlives readChunk
// across calls, so it is not released here.
func readChunk(cr *chunkReader, byteBudget int) (lines []string, release func(), eof bool, err error) {
	lineBudget := byteBudget / defaultAvgLineLen
	if lineBudget < 1 {
		lineBudget = 1
	}

	buf, release := pool.GetStringSlice(lineBudget)
	n := 0
	bytesRead := 0

	for bytesRead < byteBudget && n < lineBudget {
		line, consumed, rerr := cr.readLine()
		if consumed > 0 {
			if n < len(buf) {
				buf[n] = line
			} else {
				buf = append(buf, line)
			}
			n++
			bytesRead += consumed
		}

		if rerr == io.EOF {
			return buf[:n], release, true, nil
		}
		if rerr != nil {
			release()
			return nil, func() {}, false, rerr
		}
	}

	return buf[:n], release, false, nil
}

// processChunk partitions lines into W contiguous ranges and dispatches one
// worker per range, joining before returning. chunkStart is the absolute
// line index of lines[0].
func processChunk(d *dict.Dictionary, col *column.Column, originals []string, lines []string, chunkStart, workers, batchSize int) error {
	n := len(lines)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	perWorker := n / workers

	errCh := make(chan error, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		start := w * perWorker
		end := start + perWorker
		if w == workers-1 {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			if err := encodeRange(d, col, originals, lines, chunkStart, start, end, batchSize); err != nil {
				errCh <- err
			}
		}(start, end)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}

	return nil
}

// encodeRange is the per-worker task: for each line in [start, end), probe
// the Dictionary under the read lock; on a miss, buffer the (value,
// position) pair and flush the batch under the write lock with a mandatory
// re-probe, since a peer worker may have inserted the same value since the
// read-hold lookup.
func encodeRange(d *dict.Dictionary, col *column.Column, originals []string, lines []string, chunkStart, start, end, batchSize int) error {
	type pending struct {
		value string
		pos   int
	}

	batch := make([]pending, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		var flushErr error
		d.WithWriteLock(func(insertOrGet func(string) (uint32, error)) {
			for _, p := range batch {
				id, err := insertOrGet(p.value)
				if err != nil {
					flushErr = err
					return
				}
				col.Set(p.pos, id)
			}
		})

		batch = batch[:0]
		return flushErr
	}

	for i := start; i < end; i++ {
		value := lines[i]
		pos := chunkStart + i

		if originals != nil {
			originals[pos] = value
		}

		if id, ok := d.Lookup(value); ok {
			col.Set(pos, id)
			continue
		}

		batch = append(batch, pending{value: value, pos: pos})

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return fmt.Errorf("%w: %w", errs.ErrWorkerFailed, err)
			}
		}
	}

	if err := flush(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrWorkerFailed, err)
	}

	return nil
}
