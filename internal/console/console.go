// Package console adapts line-oriented text streams to the debouncez operator:
// integers in, comma-joined batches out.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/zoobzio/debouncez"
)

// Submitter accepts parsed values. *debouncez.Source[int] satisfies it.
type Submitter interface {
	Submit(ctx context.Context, item int) error
}

// ReadInts scans r line by line and submits every line that parses as an
// integer. Malformed lines are logged and skipped; they never reach the
// operator. It returns the number of values submitted.
func ReadInts(ctx context.Context, r io.Reader, dst Submitter, logger *zap.Logger) (int, error) {
	scanner := bufio.NewScanner(r)
	submitted := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		value, err := strconv.Atoi(line)
		if err != nil {
			logger.Debug("Skipping malformed line", zap.String("line", line))
			continue
		}

		if err := dst.Submit(ctx, value); err != nil {
			return submitted, fmt.Errorf("failed to submit %d: %w", value, err)
		}
		submitted++
	}

	if err := scanner.Err(); err != nil {
		return submitted, fmt.Errorf("failed to read input: %w", err)
	}
	return submitted, nil
}

// FormatBatch joins a batch with commas, e.g. "1,2,3". An empty batch is "".
func FormatBatch(batch []int) string {
	parts := make([]string, len(batch))
	for i, v := range batch {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Printer writes each batch it is given as one line.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes batch as one comma-joined line. Its signature matches the
// callback expected by BufferedDebounce.Subscribe.
func (p *Printer) Print(batch []int) error {
	if _, err := fmt.Fprintln(p.w, FormatBatch(batch)); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	return nil
}

var _ Submitter = (*debouncez.Source[int])(nil)
