package nutrisyn

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// RunLogger is the interface for recommendation run logging.
type RunLogger interface {
	LogRun(run RunLog) error
}

// NewRunLogFilePath returns a file path based on a cleaned up model id to make it easier to identify logs produced with various models.
func NewRunLogFilePath(model string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.NewReplacer(":", "_", "/", "_").Replace(strings.ToLower(model)),
	)
}

// RunLog represents a single submit handled by the advisor.
type RunLog struct {
	Timestamp  time.Time     `json:"timestamp"`
	Region     string        `json:"region"`
	Condition  string        `json:"condition"`
	AgeGroup   string        `json:"age_group"`
	Matches    int           `json:"matches"`
	Crops      []string      `json:"crops,omitempty"`
	Enrichment []EnrichLog   `json:"enrichment,omitempty"`
	Model      string        `json:"model,omitempty"`
	Prompt     string        `json:"prompt,omitempty"`
	Output     string        `json:"output,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// EnrichLog represents one nutrient lookup within a run.
type EnrichLog struct {
	Crop      string `json:"crop"`
	Found     bool   `json:"found"`
	Nutrients int    `json:"nutrients"`
}

// FileRunLogger logs to a writer, accumulating runs and flushing on demand.
type FileRunLogger struct {
	mu     sync.Mutex
	runs   []RunLog
	writer io.Writer
}

// NewFileRunLogger creates a new file-based run logger
func NewFileRunLogger(writer io.Writer) *FileRunLogger {
	return &FileRunLogger{
		runs:   make([]RunLog, 0),
		writer: writer,
	}
}

// LogRun buffers the run (does not flush immediately)
func (l *FileRunLogger) LogRun(run RunLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, run)
	return nil
}

// Flush writes all accumulated runs to the writer
func (l *FileRunLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"session": map[string]any{
			"timestamp": time.Now(),
			"runs":      l.runs,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}

	l.runs = l.runs[:0]
	return nil
}

// NoOpRunLogger discards all runs
type NoOpRunLogger struct{}

func NewNoOpRunLogger() *NoOpRunLogger {
	return &NoOpRunLogger{}
}

func (nop *NoOpRunLogger) LogRun(run RunLog) error {
	return nil
}

// LineRunLogger writes each run as one JSON line as soon as it is logged.
// Nothing is buffered.
type LineRunLogger struct {
	mu  sync.Mutex
	out io.Writer
}

func NewLineRunLogger(out io.Writer) *LineRunLogger {
	return &LineRunLogger{out: out}
}

// NewStdoutRunLogger writes run lines to stdout (for Lambda/CloudWatch).
func NewStdoutRunLogger() *LineRunLogger {
	return NewLineRunLogger(os.Stdout)
}

func (l *LineRunLogger) LogRun(run RunLog) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintln(l.out, string(data)); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}
	return nil
}
