package bench

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Score is the reported outcome of one tool on one dataset.
type Score struct {
	Metrics
	Totals
}

// Result is the structured output of an evaluation: dataset -> tool -> Score.
// Tools that produced no numbers appear in Unsupported with a message instead.
type Result struct {
	Scores      map[string]map[string]Score
	Unsupported map[string]map[string]string

	// Order lists scored keys in first-observation order.
	Order []Key
	// UnsupportedOrder lists unsupported keys in first-observation order.
	UnsupportedOrder []Key
}

// Score returns the score for (dataset, tool).
func (r Result) Score(dataset, tool string) (Score, bool) {
	s, ok := r.Scores[dataset][tool]
	return s, ok
}

// Report computes metrics for every key currently in the aggregator from the
// cumulative totals. It may be called at any point during a run.
func Report(a *Aggregator) Result {
	keys, totals, unsupKeys, unsup := a.snapshot()

	res := Result{
		Scores:           make(map[string]map[string]Score),
		Unsupported:      make(map[string]map[string]string),
		Order:            keys,
		UnsupportedOrder: unsupKeys,
	}
	for _, k := range keys {
		t := totals[k]
		if res.Scores[k.Dataset] == nil {
			res.Scores[k.Dataset] = make(map[string]Score)
		}
		res.Scores[k.Dataset][k.Tool] = Score{Metrics: ComputeMetrics(t), Totals: t}
	}
	for _, k := range unsupKeys {
		if res.Unsupported[k.Dataset] == nil {
			res.Unsupported[k.Dataset] = make(map[string]string)
		}
		res.Unsupported[k.Dataset][k.Tool] = unsup[k]
	}
	return res
}

// Reporter writes results as log records.
type Reporter struct {
	logger *slog.Logger
}

// NewReporter returns a Reporter logging to l (slog.Default if nil).
func NewReporter(l *slog.Logger) *Reporter {
	if l == nil {
		l = slog.Default()
	}
	return &Reporter{logger: l}
}

// Log emits recall, precision and F1 for every scored key, and the message
// for every unsupported one.
func (r *Reporter) Log(res Result) {
	for _, k := range res.Order {
		s := res.Scores[k.Dataset][k.Tool]
		r.logger.Info("result",
			"dataset", k.Dataset,
			"tool", k.Tool,
			"recall", FormatMetric(s.Recall),
			"precision", FormatMetric(s.Precision),
			"f1", FormatMetric(s.F1),
			"ref", s.Ref,
			"can", s.Can,
			"match", s.Match,
		)
		if s.Failed > 0 || s.Misaligned > 0 {
			r.logger.Warn("incomplete result",
				"dataset", k.Dataset,
				"tool", k.Tool,
				"failed_lines", s.Failed,
				"misaligned_lines", s.Misaligned,
			)
		}
	}
	for _, k := range res.UnsupportedOrder {
		r.logger.Warn("result",
			"dataset", k.Dataset,
			"tool", k.Tool,
			"message", res.Unsupported[k.Dataset][k.Tool],
		)
	}
}

// RenderTable renders the result as a bordered text table.
func RenderTable(res Result) string {
	cell := lipgloss.NewStyle().Padding(0, 1)
	header := cell.Bold(true)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers("Dataset", "Tool", "Recall", "Precision", "F1", "Ref", "Can", "Match")

	for _, k := range res.Order {
		s := res.Scores[k.Dataset][k.Tool]
		t.Row(k.Dataset, k.Tool,
			FormatMetric(s.Recall), FormatMetric(s.Precision), FormatMetric(s.F1),
			fmt.Sprint(s.Ref), fmt.Sprint(s.Can), fmt.Sprint(s.Match))
	}
	for _, k := range res.UnsupportedOrder {
		t.Row(k.Dataset, k.Tool, res.Unsupported[k.Dataset][k.Tool], "", "", "", "", "")
	}
	return t.String()
}

// WriteJSON writes the result as a JSON object keyed by dataset then tool.
// Undefined metrics are written as null.
func WriteJSON(w io.Writer, res Result) error {
	root := make(map[string]any)
	for _, k := range res.Order {
		s := res.Scores[k.Dataset][k.Tool]
		ds := datasetNode(root, k.Dataset)
		ds[k.Tool] = map[string]any{
			"recall":     jsonMetric(s.Recall),
			"precision":  jsonMetric(s.Precision),
			"f1":         jsonMetric(s.F1),
			"ref":        s.Ref,
			"can":        s.Can,
			"match":      s.Match,
			"lines":      s.Lines,
			"misaligned": s.Misaligned,
			"failed":     s.Failed,
		}
	}
	for _, k := range res.UnsupportedOrder {
		datasetNode(root, k.Dataset)[k.Tool] = res.Unsupported[k.Dataset][k.Tool]
	}

	st, err := structpb.NewStruct(root)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func datasetNode(root map[string]any, dataset string) map[string]any {
	ds, ok := root[dataset].(map[string]any)
	if !ok {
		ds = make(map[string]any)
		root[dataset] = ds
	}
	return ds
}

func jsonMetric(v float64) any {
	if !Defined(v) {
		return nil
	}
	return v
}
