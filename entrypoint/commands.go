package main

import (
	"text2phenotype.com/ner/corpus"
	"text2phenotype.com/ner/evaluation"
	"text2phenotype.com/ner/hmm"
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/normalizer"
	"text2phenotype.com/ner/pipeline"
	"text2phenotype.com/ner/types"
	"text2phenotype.com/ner/viterbi"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ner count [-n 3] [-orders 1,2,3] [-rare-threshold 0] [-o counts] [corpus]
func runCount(args []string) error {
	flags := flag.NewFlagSet("count", flag.ExitOnError)
	order := flags.Int("n", hmm.DefaultOrder, "n-gram order")
	orderList := flags.String("orders", "", "comma separated n-gram orders to write, all by default")
	threshold := flags.Int("rare-threshold", 0, "fold words seen fewer times into categories before counting, 0 to count raw words")
	outPath := flags.String("o", "-", "counts file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	orders, err := parseOrders(*orderList)
	if err != nil {
		return err
	}

	in, err := openInput(argOrStdin(flags.Args(), 0))
	if err != nil {
		return err
	}
	defer in.Close()

	var model *hmm.Model
	if *threshold > 0 {
		model, err = pipeline.TrainModel(in, *order, *threshold)
	} else {
		model, err = hmm.NewModel(*order)
		if err == nil {
			err = model.Train(in)
		}
	}
	if err != nil {
		return err
	}

	out, err := createOutput(*outPath)
	if err != nil {
		return err
	}
	if err = model.WriteCounts(out, orders...); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func parseOrders(list string) ([]int, error) {
	if len(list) == 0 {
		return nil, nil
	}
	var orders []int
	for _, field := range strings.Split(list, ",") {
		k, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("bad n-gram order %q: %w", field, err)
		}
		orders = append(orders, k)
	}
	return orders, nil
}

// ner group -counts counts [-rare-threshold 5] [-o corpus] [corpus]
func runGroup(args []string) error {
	flags := flag.NewFlagSet("group", flag.ExitOnError)
	countsPath := flags.String("counts", "", "counts file of the corpus")
	threshold := flags.Int("rare-threshold", types.DefaultRareThreshold, "words seen fewer times are replaced")
	outPath := flags.String("o", "-", "rewritten corpus")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if len(*countsPath) == 0 {
		return errors.New("group: -counts is required")
	}

	model, err := pipeline.LoadModel(types.Configuration{Name: "group", CountsFile: *countsPath}, nil)
	if err != nil {
		return err
	}

	in, err := openInput(argOrStdin(flags.Args(), 0))
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := createOutput(*outPath)
	if err != nil {
		return err
	}
	replaced, err := normalizer.New(model, *threshold).RewriteCorpus(in, out)
	if err != nil {
		_ = out.Close()
		return err
	}
	groupLogger := logger.NewLogger("Group")
	groupLogger.Info().
		Int("replaced_tokens", replaced).
		Int("threshold", *threshold).
		Msg("Grouped rare words")
	return out.Close()
}

// ner tag -counts counts [-backtrace] [-rare-threshold 5] [-o output] [corpus]
func runTag(args []string) error {
	flags := flag.NewFlagSet("tag", flag.ExitOnError)
	countsPath := flags.String("counts", "", "counts file of a trigram model")
	backtrace := flags.Bool("backtrace", false, "return the best whole path instead of the best tag per position")
	threshold := flags.Int("rare-threshold", types.DefaultRareThreshold, "words seen fewer times are looked up by category")
	outPath := flags.String("o", "-", "tagged output")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if len(*countsPath) == 0 {
		return errors.New("tag: -counts is required")
	}

	cfg := types.Configuration{
		Name:          "tag",
		CountsFile:    *countsPath,
		Decoding:      types.DecodingArgmax,
		RareThreshold: *threshold,
	}
	if *backtrace {
		cfg.Decoding = types.DecodingBacktrace
	}
	decoder, err := pipeline.LoadDecoder(cfg, nil)
	if err != nil {
		return err
	}

	in, err := openInput(argOrStdin(flags.Args(), 0))
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := createOutput(*outPath)
	if err != nil {
		return err
	}
	scanner := corpus.NewSentenceScanner(in, corpus.Untagged)
	for scanner.Scan() {
		if err = viterbi.WriteResult(out, decoder.Decode(scanner.Sentence().Words())); err != nil {
			_ = out.Close()
			return err
		}
	}
	if err = scanner.Err(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// ner compare [-format scored] [-classes PER,ORG,LOC,MISC] gold predicted
func runCompare(args []string) error {
	flags := flag.NewFlagSet("compare", flag.ExitOnError)
	format := flags.String("format", "scored", "format of the predictions: scored or tagged")
	classList := flags.String("classes", strings.Join(evaluation.DefaultClasses, ","), "entity classes to report")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 2 {
		return errors.New("compare: expected gold and predicted files")
	}

	var predictedFormat corpus.Format
	switch *format {
	case "scored":
		predictedFormat = corpus.Scored
	case "tagged":
		predictedFormat = corpus.Tagged
	default:
		return fmt.Errorf("compare: unknown format %q", *format)
	}

	gold, err := os.Open(flags.Arg(0))
	if err != nil {
		return err
	}
	defer gold.Close()
	predicted, err := os.Open(flags.Arg(1))
	if err != nil {
		return err
	}
	defer predicted.Close()

	comparator := evaluation.NewComparator(strings.Split(*classList, ",")...)
	if err = comparator.Compare(gold, predicted, predictedFormat); err != nil {
		return err
	}
	return comparator.WriteReport(os.Stdout)
}
