package nutricoach

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// AnalysisLogger records every exchange with the analysis service for diagnostics.
type AnalysisLogger interface {
	LogExchange(x Exchange) error
}

// NewAnalysisLogFilePath returns a log file path keyed by capture modality so runs
// against different inputs are easy to tell apart.
func NewAnalysisLogFilePath(dir, modality string) string {
	return fmt.Sprintf(
		"%s/%d.%s.json",
		strings.TrimRight(dir, "/"),
		time.Now().Unix(),
		strings.ToLower(modality),
	)
}

// Exchange is a single request/response pair with the analysis service.
type Exchange struct {
	Modality  string    `json:"modality"` // text, voice, food_photo, menu_photo, coach
	Timestamp time.Time `json:"timestamp"`
	Prompt    string    `json:"prompt,omitempty"`
	ImageSize int       `json:"image_size,omitempty"`
	Response  any       `json:"response,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// FileAnalysisLogger buffers exchanges and flushes them as one JSON document.
type FileAnalysisLogger struct {
	exchanges []Exchange
	writer    io.Writer
}

func NewFileAnalysisLogger(writer io.Writer) *FileAnalysisLogger {
	return &FileAnalysisLogger{
		exchanges: make([]Exchange, 0),
		writer:    writer,
	}
}

// LogExchange appends to the buffer; nothing is written until Flush.
func (l *FileAnalysisLogger) LogExchange(x Exchange) error {
	l.exchanges = append(l.exchanges, x)
	return nil
}

// Flush writes all buffered exchanges to the writer and clears the buffer.
func (l *FileAnalysisLogger) Flush() error {
	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"analysis_session": map[string]any{
			"timestamp": time.Now(),
			"exchanges": l.exchanges,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write analysis log: %w", err)
	}

	l.exchanges = l.exchanges[:0]
	return nil
}

// NoOpAnalysisLogger discards all exchanges.
type NoOpAnalysisLogger struct{}

func NewNoOpAnalysisLogger() *NoOpAnalysisLogger {
	return &NoOpAnalysisLogger{}
}

func (NoOpAnalysisLogger) LogExchange(x Exchange) error {
	return nil
}

// StdoutAnalysisLogger writes each exchange as a JSON line to stdout (for Lambda/CloudWatch).
type StdoutAnalysisLogger struct{}

func NewStdoutAnalysisLogger() *StdoutAnalysisLogger {
	return &StdoutAnalysisLogger{}
}

func (StdoutAnalysisLogger) LogExchange(x Exchange) error {
	data, err := json.Marshal(x)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
