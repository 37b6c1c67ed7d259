package training

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"widedeep/internal/evaluation"
)

const historyFile = "eval_history.csv"

// Reporter prints evaluation results after each cycle.
type Reporter struct {
	out    io.Writer
	header func(a ...any) string
	key    func(a ...any) string
	value  func(a ...any) string
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{
		out:    out,
		header: color.New(color.FgCyan, color.Bold).SprintFunc(),
		key:    color.New(color.FgYellow).SprintFunc(),
		value:  color.New(color.FgGreen).SprintFunc(),
	}
}

// Report writes "Results at epoch N", a separator and one line per metric in
// key order.
func (r *Reporter) Report(epoch int, metrics evaluation.Metrics) {
	fmt.Fprintln(r.out, r.header(fmt.Sprintf("Results at epoch %d", epoch)))
	fmt.Fprintln(r.out, strings.Repeat("-", 60))
	for _, k := range metrics.SortedKeys() {
		fmt.Fprintf(r.out, "%s: %s\n", r.key(fmt.Sprintf("%-20s", k)), r.value(fmt.Sprintf("%.6f", metrics[k])))
	}
}

// EvalRecord is one row of the evaluation history kept in the model dir.
type EvalRecord struct {
	RunID       string  `csv:"run_id"`
	Epoch       int     `csv:"epoch"`
	GlobalStep  int64   `csv:"global_step"`
	Accuracy    float64 `csv:"accuracy"`
	AverageLoss float64 `csv:"average_loss"`
	Loss        float64 `csv:"loss"`
	MacroF1     float64 `csv:"macro_f1"`
}

func newEvalRecord(runID string, epoch int, m evaluation.Metrics) EvalRecord {
	return EvalRecord{
		RunID:       runID,
		Epoch:       epoch,
		GlobalStep:  int64(m[evaluation.KeyGlobalStep]),
		Accuracy:    m[evaluation.KeyAccuracy],
		AverageLoss: m[evaluation.KeyAverageLoss],
		Loss:        m[evaluation.KeyLoss],
		MacroF1:     m[evaluation.KeyMacroF1],
	}
}

func writeHistory(dir string, records []EvalRecord) (string, error) {
	path := filepath.Join(dir, historyFile)
	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to create evaluation history")
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&records, file); err != nil {
		return "", errors.Wrap(err, "failed to write evaluation history")
	}
	return path, nil
}
