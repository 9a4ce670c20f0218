// Package report turns a run's metric log into a standalone HTML summary.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/odysseylab/msgload/internal/events"
	"github.com/odysseylab/msgload/internal/summary"
)

// ErrOutputUnwritable reports that the report destination could not be written.
var ErrOutputUnwritable = errors.New("output unwritable")

// Options tune Generate. The zero value is usable.
type Options struct {
	// Now supplies the generation timestamp. Defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// Result describes a written report.
type Result struct {
	Summary summary.Summary
	Path    string
	Bytes   int64
	Skipped int
}

// Generate reads the metric log at input and writes the HTML report to output.
// Either the complete report is written or output is left untouched.
func Generate(input, output string, opt Options) (Result, error) {
	if opt.Now == nil {
		opt.Now = time.Now
	}
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}

	log.Info("reading metric log", zap.String("path", input))
	sc, f, err := events.Open(input)
	if err != nil {
		return Result{}, err
	}
	sum, err := summary.FromScanner(sc)
	_ = f.Close()
	if err != nil {
		return Result{}, err
	}
	if sc.Skipped() > 0 {
		log.Debug("skipped malformed lines", zap.Int("lines", sc.Skipped()))
	}

	var buf bytes.Buffer
	if err := Render(&buf, sum, input, opt.Now()); err != nil {
		return Result{}, err
	}

	if err := writeAtomic(output, buf.Bytes()); err != nil {
		return Result{}, err
	}

	res := Result{Summary: sum, Path: output, Bytes: int64(buf.Len()), Skipped: sc.Skipped()}
	if info, statErr := os.Stat(output); statErr == nil {
		res.Bytes = info.Size()
	}
	log.Info("report written",
		zap.String("path", output),
		zap.String("size", fmt.Sprintf("%.2f KB", float64(res.Bytes)/1024)),
	)
	return res, nil
}

// writeAtomic stages data in a temp file beside path and renames it into
// place.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputUnwritable, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputUnwritable, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputUnwritable, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputUnwritable, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputUnwritable, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputUnwritable, err)
	}
	return nil
}
