package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/ezoic/carprice/artifact"
	"github.com/ezoic/carprice/cnf"
	"github.com/ezoic/carprice/dataset"
	"github.com/ezoic/carprice/pkg/errors"
	"github.com/ezoic/carprice/pkg/log"
	"github.com/ezoic/carprice/pricing"
	"github.com/ezoic/carprice/session"
)

const (
	errColor = color.FgHiRed
)

var (
	header = color.New(color.Bold)
	good   = color.New(color.FgGreen)
)

func printError(err error) {
	color.New(errColor).Fprintln(os.Stderr, err)
}

func runActionVersion(out io.Writer, ver VersionInfo) {
	fmt.Fprintln(out, "carprice version:", ver)
}

func openStore(conf *cnf.Conf) (artifact.Store, bool) {
	store, err := conf.OpenStore()
	if err != nil {
		printError(err)
		return nil, false
	}
	return store, true
}

func loadData(conf *cnf.Conf, path string) (*dataset.Table, bool) {
	path = conf.Dataset(path)
	if path == "" {
		printError(errors.New("missing -data argument and no datasetPath configured"))
		return nil, false
	}
	table, err := pricing.LoadCSV(path)
	if err != nil {
		printError(err)
		return nil, false
	}
	return table, true
}

func runActionTrain(ctx context.Context, out io.Writer, conf *cnf.Conf, dataPath string, showProgress bool) int {
	table, ok := loadData(conf, dataPath)
	if !ok {
		return exitErrorData
	}
	store, ok := openStore(conf)
	if !ok {
		return exitErrorStore
	}
	defer store.Close()

	cfg := conf.TrainerConfig()
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.NewOptions(cfg.NEstimators,
			progressbar.OptionSetDescription("fitting trees"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
		cfg.Progress = func(done, _ int) {
			bar.Set(done)
		}
	}

	estimator := pricing.NewEstimator()
	a, err := estimator.Train(ctx, pricing.NewTrainer(cfg), store, table)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		log.LogError(err, "training failed")
		printError(err)
		return exitErrorTraining
	}

	r := a.Report
	header.Fprintln(out, "Training")
	fmt.Fprintf(out, "rows read:       %d\n", r.RowsIn)
	fmt.Fprintf(out, "rows cleaned:    %d\n", r.Cleaned.NumRows())
	fmt.Fprintf(out, "train / test:    %d / %d\n", len(r.TrainIndices), len(r.TestIndices))
	fmt.Fprintf(out, "trees:           %d\n", len(a.Forest.Trees))
	fmt.Fprintf(out, "duration:        %s\n", r.Duration)
	fmt.Fprintf(out, "run:             %s\n", a.Run)

	header.Fprintln(out, "\nOutlier bounds")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "column\tlower\tupper\trows before\trows after")
	for _, b := range r.Bounds {
		fmt.Fprintf(w, "%s\t%g\t%g\t%d\t%d\n", b.Column, b.Lower, b.Upper, b.RowsBefore, b.RowsAfter)
	}
	w.Flush()

	header.Fprintln(out, "\nFeature importances")
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, imp := range a.Forest.FeatureImportances() {
		fmt.Fprintf(w, "%s\t%.4f\n", pricing.FeatureOrder[i], imp)
	}
	w.Flush()

	good.Fprintf(out, "\nartifacts saved (%s backend)\n", conf.Backend)
	return exitOK
}

func runActionPredict(ctx context.Context, out io.Writer, conf *cnf.Conf, in pricing.Input) int {
	store, ok := openStore(conf)
	if !ok {
		return exitErrorStore
	}
	defer store.Close()

	estimator := pricing.NewEstimator()
	if err := estimator.Load(ctx, store); err != nil {
		printError(err)
		return exitErrorStore
	}
	price, err := estimator.Predict(in)
	if err != nil {
		printError(err)
		return exitErrorPrediction
	}
	header.Fprint(out, "Predicted Price: ")
	fmt.Fprintln(out, int(price))
	return exitOK
}

func runActionAnalyze(out io.Writer, conf *cnf.Conf, dataPath string) int {
	table, ok := loadData(conf, dataPath)
	if !ok {
		return exitErrorData
	}
	s := dataset.Describe(table)

	header.Fprintln(out, "Dataset Information")
	fmt.Fprintf(out, "rows: %d, columns: %d\n", s.Rows, s.Columns)

	header.Fprintln(out, "\nDescriptive Statistics")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
	for _, n := range s.Numeric {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			n.Column, n.Count, n.Mean, n.Std, n.Min, n.Q25, n.Q50, n.Q75, n.Max)
	}
	w.Flush()

	header.Fprintln(out, "\nMissing Values")
	for _, name := range table.Names() {
		fmt.Fprintf(out, "%s: %d\n", name, s.Missing[name])
	}

	header.Fprintln(out, "\nUnique Values")
	for _, c := range s.Categorical {
		fmt.Fprintf(out, "%s (%d): %s\n", c.Column, len(c.Unique), strings.Join(c.Unique, ", "))
	}

	header.Fprintln(out, "\nDuplicate Rows")
	fmt.Fprintln(out, s.Duplicates)
	return exitOK
}

func runActionScatter(ctx context.Context, out io.Writer, conf *cnf.Conf, dataPath, variable string, in *pricing.Input) int {
	table, ok := loadData(conf, dataPath)
	if !ok {
		return exitErrorData
	}
	estimator := pricing.NewEstimator()
	if in != nil {
		store, ok := openStore(conf)
		if !ok {
			return exitErrorStore
		}
		defer store.Close()
		if err := estimator.Load(ctx, store); err != nil {
			printError(err)
			return exitErrorStore
		}
	}

	sess, err := session.New(table, estimator, pricing.NewTrainer(conf.TrainerConfig()), nil, conf.SessionOptions())
	if err != nil {
		printError(err)
		return exitErrorData
	}
	view, err := sess.Dispatch(ctx, session.Event{Command: session.CommandRefresh})
	for i := 0; err == nil && view.Variable != variable && i < len(session.Variables); i++ {
		view, err = sess.Dispatch(ctx, session.Event{Command: session.CommandNextVariable})
	}
	if err == nil && view.Variable != variable {
		err = errors.NewValueError("scatter", fmt.Sprintf("unknown variable %q, use one of %s", variable, strings.Join(session.Variables, ", ")))
	}
	if err == nil && in != nil {
		view, err = sess.Dispatch(ctx, session.Event{Command: session.CommandPredict, Input: *in})
	}
	if err != nil {
		printError(err)
		return exitErrorPrediction
	}

	header.Fprintln(out, view.Scatter.Title)
	fmt.Fprintf(out, "Predicted Price: %s\n", view.PriceLabel())
	fmt.Fprintf(out, "Most Frequent Model: %s\n", view.Stats.TopModel)
	fmt.Fprintf(out, "Average Mileage: %d\n", view.Stats.AverageMileage)
	fmt.Fprintf(out, "Average MPG: %d\n\n", view.Stats.AverageMPG)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", view.Scatter.XLabel, view.Scatter.YLabel)
	for _, p := range view.Scatter.Points {
		fmt.Fprintf(w, "%g\t%g\n", p.X, p.Y)
	}
	if h := view.Scatter.Highlight; h != nil {
		fmt.Fprintf(w, "%g\t%g\t<- prediction\n", h.X, h.Y)
	}
	w.Flush()
	return exitOK
}
