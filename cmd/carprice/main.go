package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ezoic/carprice/cnf"
	"github.com/ezoic/carprice/pkg/log"
	"github.com/ezoic/carprice/pricing"
)

const (
	actionTrain   = "train"
	actionPredict = "predict"
	actionAnalyze = "analyze"
	actionScatter = "scatter"
	actionVersion = "version"
	actionHelp    = "help"
)

const (
	exitOK = iota
	exitErrorGeneralFailure
	exitErrorConfig
	exitErrorStore
	exitErrorData
	exitErrorTraining
	exitErrorPrediction
)

var (
	version   string
	buildDate string
	gitCommit string
)

// VersionInfo provides build information.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)
}

func cleanVersionInfo(v string) string {
	return strings.TrimLeft(strings.Trim(v, "'"), "v")
}

func topLevelUsage() {
	fmt.Fprintf(os.Stderr, "CARPRICE - used car price prediction\n")
	fmt.Fprintf(os.Stderr, "------------------------------------\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\t%s [-config conf.json] ACTION [options]\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "Actions:\n")
	fmt.Fprintf(os.Stderr, "\t%s\t\ttrain the model on a CSV dataset and store all artifacts\n", actionTrain)
	fmt.Fprintf(os.Stderr, "\t%s\t\tpredict the price of one car using stored artifacts\n", actionPredict)
	fmt.Fprintf(os.Stderr, "\t%s\t\tprint a summary of a CSV dataset\n", actionAnalyze)
	fmt.Fprintf(os.Stderr, "\t%s\t\tprint scatter data of price against a variable\n", actionScatter)
	fmt.Fprintf(os.Stderr, "\t%s\t\tshow version info\n", actionVersion)
	fmt.Fprintf(os.Stderr, "\nUse `carprice help ACTION` for information about a specific action\n\n")
}

func setup(confPath string) *cnf.Conf {
	conf, err := cnf.LoadConfig(confPath)
	if err != nil {
		printError(err)
		os.Exit(exitErrorConfig)
	}
	log.SetupLogger(conf.LogLevel)
	if err := cnf.ValidateAndDefaults(conf); err != nil {
		printError(err)
		os.Exit(exitErrorConfig)
	}
	return conf
}

func addInputFlags(fs *flag.FlagSet, in *pricing.Input) {
	fs.StringVar(&in.Brand, "brand", "", "car brand, e.g. Audi")
	fs.StringVar(&in.Model, "model", "", "car model as it appears in the dataset, e.g. \" A1\"")
	fs.StringVar(&in.Transmission, "transmission", pricing.Transmissions[0], "transmission ("+strings.Join(pricing.Transmissions, ", ")+")")
	fs.StringVar(&in.FuelType, "fuel", "Petrol", "fuel type")
	fs.Float64Var(&in.Year, "year", 2020, "registration year")
	fs.Float64Var(&in.Mileage, "mileage", 0, "mileage")
	fs.Float64Var(&in.Tax, "tax", 150, "road tax")
	fs.Float64Var(&in.MPG, "mpg", 50, "miles per gallon")
	fs.Float64Var(&in.EngineSize, "engine-size", pricing.DefaultEngineSize, "engine size in litres")
}

func main() {
	ver := VersionInfo{
		Version:   cleanVersionInfo(version),
		BuildDate: cleanVersionInfo(buildDate),
		GitCommit: cleanVersionInfo(gitCommit),
	}

	confPath := flag.String("config", "", "path to a JSON config file (CARPRICE_* variables override it)")
	flag.Usage = topLevelUsage
	flag.Parse()

	cmdTrain := flag.NewFlagSet(actionTrain, flag.ExitOnError)
	trainData := cmdTrain.String("data", "", "CSV dataset to train on (default: datasetPath from the config)")
	trainQuiet := cmdTrain.Bool("quiet", false, "do not show a progress bar")
	cmdTrain.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\t%s %s -data cars.csv [options]\n\nOptions:\n", filepath.Base(os.Args[0]), actionTrain)
		cmdTrain.PrintDefaults()
	}

	cmdPredict := flag.NewFlagSet(actionPredict, flag.ExitOnError)
	var predictInput pricing.Input
	addInputFlags(cmdPredict, &predictInput)
	cmdPredict.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\t%s %s -brand Audi -model \" A1\" [options]\n\nOptions:\n", filepath.Base(os.Args[0]), actionPredict)
		cmdPredict.PrintDefaults()
	}

	cmdAnalyze := flag.NewFlagSet(actionAnalyze, flag.ExitOnError)
	analyzeData := cmdAnalyze.String("data", "", "CSV dataset to summarise (default: datasetPath from the config)")
	cmdAnalyze.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\t%s %s -data cars.csv\n\nOptions:\n", filepath.Base(os.Args[0]), actionAnalyze)
		cmdAnalyze.PrintDefaults()
	}

	cmdScatter := flag.NewFlagSet(actionScatter, flag.ExitOnError)
	scatterData := cmdScatter.String("data", "", "CSV dataset to plot (default: datasetPath from the config)")
	scatterVar := cmdScatter.String("var", pricing.ColumnYear, "variable plotted against price")
	scatterPredict := cmdScatter.Bool("predict", false, "price the input given by the car flags and highlight it")
	var scatterInput pricing.Input
	addInputFlags(cmdScatter, &scatterInput)
	cmdScatter.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\t%s %s -data cars.csv [-var mileage] [options]\n\nOptions:\n", filepath.Base(os.Args[0]), actionScatter)
		cmdScatter.PrintDefaults()
	}

	cmdVersion := flag.NewFlagSet(actionVersion, flag.ExitOnError)
	cmdHelp := flag.NewFlagSet(actionHelp, flag.ExitOnError)

	action := actionHelp
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}
	var args []string
	if flag.NArg() > 1 {
		args = flag.Args()[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := exitOK
	switch action {
	case actionHelp:
		cmdHelp.Parse(args)
		switch cmdHelp.Arg(0) {
		case actionTrain:
			cmdTrain.Usage()
		case actionPredict:
			cmdPredict.Usage()
		case actionAnalyze:
			cmdAnalyze.Usage()
		case actionScatter:
			cmdScatter.Usage()
		default:
			topLevelUsage()
		}
	case actionVersion:
		cmdVersion.Parse(args)
		runActionVersion(os.Stderr, ver)
	case actionTrain:
		cmdTrain.Parse(args)
		code = runActionTrain(ctx, os.Stdout, setup(*confPath), *trainData, !*trainQuiet)
	case actionPredict:
		cmdPredict.Parse(args)
		code = runActionPredict(ctx, os.Stdout, setup(*confPath), predictInput)
	case actionAnalyze:
		cmdAnalyze.Parse(args)
		code = runActionAnalyze(os.Stdout, setup(*confPath), *analyzeData)
	case actionScatter:
		cmdScatter.Parse(args)
		var in *pricing.Input
		if *scatterPredict {
			in = &scatterInput
		}
		code = runActionScatter(ctx, os.Stdout, setup(*confPath), *scatterData, *scatterVar, in)
	default:
		printError(fmt.Errorf("unknown action %q, please use 'help' to get more information", action))
		code = exitErrorGeneralFailure
	}
	stop()
	os.Exit(code)
}
