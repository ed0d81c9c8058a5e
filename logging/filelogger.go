package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-harness/reporting"
	"github.com/ethereum-optimism/infra/op-harness/runner"
	"github.com/ethereum-optimism/infra/op-harness/types"
)

// AsyncFile provides non-blocking file writing capabilities
type AsyncFile struct {
	file     *os.File
	queue    chan []byte
	wg       sync.WaitGroup
	mu       sync.Mutex
	stopped  bool
	writeErr error // First error from the background writer
	closeErr error
}

var _ io.WriteCloser = (*AsyncFile)(nil)

// NewAsyncFile creates path, including missing parent directories, and
// starts the background writer.
func NewAsyncFile(path string) (*AsyncFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}

	af := &AsyncFile{
		file:  file,
		queue: make(chan []byte, 100),
	}

	af.wg.Add(1)
	go af.processQueue()

	return af, nil
}

// Write queues data to be written asynchronously
func (af *AsyncFile) Write(data []byte) (int, error) {
	af.mu.Lock()
	defer af.mu.Unlock()

	if af.stopped {
		return 0, fmt.Errorf("async file is closed")
	}

	// The caller may reuse data once Write returns.
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	af.queue <- dataCopy
	return len(data), nil
}

func (af *AsyncFile) processQueue() {
	defer af.wg.Done()

	for data := range af.queue {
		if _, err := af.file.Write(data); err != nil && af.writeErr == nil {
			af.writeErr = err
		}
	}
}

// Close flushes pending writes and closes the file. It reports the first
// write error, if any. Calling Close more than once is safe.
func (af *AsyncFile) Close() error {
	af.mu.Lock()
	if af.stopped {
		af.mu.Unlock()
		af.wg.Wait()
		return af.closeErr
	}
	af.stopped = true
	close(af.queue)
	af.mu.Unlock()

	af.wg.Wait()
	af.closeErr = af.file.Close()
	if af.writeErr != nil {
		af.closeErr = fmt.Errorf("failed to write %s: %w", af.file.Name(), af.writeErr)
	}
	return af.closeErr
}

// stripWriter removes ANSI escape sequences before writing. Failure messages
// from units of work may carry their own colors.
type stripWriter struct {
	w io.Writer
}

func (s stripWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(s.w, stripansi.Strip(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

var _ runner.EventSink = (*LogFileSink)(nil)

// LogFileSink mirrors the pretty output, without colors, into a file
type LogFileSink struct {
	file   *AsyncFile
	pretty *reporting.Pretty
}

// NewLogFileSink creates the log file at path.
func NewLogFileSink(path string) (*LogFileSink, error) {
	file, err := NewAsyncFile(path)
	if err != nil {
		return nil, err
	}
	return &LogFileSink{
		file:   file,
		pretty: reporting.NewPretty(stripWriter{w: file}, reporting.Palette{}),
	}, nil
}

func (s *LogFileSink) OnStart(plan runner.Plan) error {
	return s.pretty.OnStart(plan)
}

func (s *LogFileSink) OnTestStart(ev types.Event) error {
	return s.pretty.OnTestStart(ev)
}

func (s *LogFileSink) OnResult(ev types.Event) error {
	return s.pretty.OnResult(ev)
}

// OnFinish writes the summary and closes the file.
func (s *LogFileSink) OnFinish(result *runner.Result) error {
	if err := s.pretty.OnFinish(result); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

// Close releases the file when the run never finished.
func (s *LogFileSink) Close() error {
	return s.file.Close()
}
