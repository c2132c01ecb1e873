// Package historylog writes diagnostic exports of the price history.
package historylog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultExportDir = "./exports"
	fileTimeLayout   = "20060102_150405"
)

// Exporter writes one price per line to a new timestamped file on every call.
type Exporter struct {
	dir string
	now func() time.Time
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string) *Exporter {
	if dir == "" {
		dir = defaultExportDir
	}
	return &Exporter{dir: dir, now: time.Now}
}

// Export writes history oldest first and returns the created file path.
func (e *Exporter) Export(history []float64) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create history export dir")
	}

	path := e.uniquePath(e.now())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create history export file")
	}

	w := bufio.NewWriter(f)
	for _, price := range history {
		w.WriteString(strconv.FormatFloat(price, 'g', -1, 64))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", errors.Wrap(err, "write history export")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "close history export")
	}

	return path, nil
}

// uniquePath picks stock_history_<ts>.txt, adding a counter when several
// exports happen within the same second.
func (e *Exporter) uniquePath(ts time.Time) string {
	base := "stock_history_" + ts.Format(fileTimeLayout)
	path := filepath.Join(e.dir, base+".txt")
	for i := 1; fileExists(path); i++ {
		path = filepath.Join(e.dir, fmt.Sprintf("%s_%d.txt", base, i))
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
