// mealocr extracts structured expense fields from scanned receipt images and
// PDFs: merchant, date, amounts, line items, each with a confidence score.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mealocr/pkg/extract"
	"mealocr/pkg/pipeline"
)

var (
	outputFormat string
	tesseractCmd string
	threshold    float64
	verbose      bool
	timeout      time.Duration
	binarize     bool
	languages    []string
)

func main() {
	root := &cobra.Command{
		Use:           "mealocr FILE",
		Short:         "Extract structured expense data from a receipt image or PDF",
		Args:          cobra.ExactArgs(1),
		RunE:          runExtract,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&tesseractCmd, "tesseract-cmd", "", "path to the tesseract binary (default: discover on PATH)")
	pf.Float64Var(&threshold, "confidence-threshold", 0.7, "advisory threshold attached to the output")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable diagnostic logging")
	pf.DurationVar(&timeout, "timeout", 0, "per-page recognition budget (0 = none)")
	pf.BoolVar(&binarize, "binarize", false, "aggressive thresholding for low-quality scans")
	pf.StringSliceVar(&languages, "lang", nil, "OCR languages (default eng)")
	root.Flags().StringVar(&outputFormat, "output-format", "text", "output format: json or text")

	watch := &cobra.Command{
		Use:   "watch DIR",
		Short: "Process every receipt in a directory, optionally watching for new files",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	watch.Flags().Int("workers", 0, "worker pool size (default NumCPU)")
	watch.Flags().Bool("follow", false, "keep watching for new files after the initial scan")
	root.AddCommand(watch)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func buildPipeline() (*pipeline.Pipeline, error) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	return pipeline.New(pipeline.Config{
		TesseractCmd:        tesseractCmd,
		Languages:           languages,
		ConfidenceThreshold: threshold,
		Timeout:             timeout,
		Binarize:            binarize,
		Logger:              log,
	})
}

func runExtract(cmd *cobra.Command, args []string) error {
	if outputFormat != "json" && outputFormat != "text" {
		return fmt.Errorf("invalid --output-format %q (want json or text)", outputFormat)
	}
	p, err := buildPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	r, err := p.ExtractFile(context.Background(), args[0])
	if err != nil {
		return err
	}
	if outputFormat == "json" {
		out, err := extract.FormatJSON(r)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Print(extract.FormatText(r))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	follow, _ := cmd.Flags().GetBool("follow")

	p, err := buildPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	var mu sync.Mutex
	enc := json.NewEncoder(os.Stdout)
	report := func(res pipeline.Result) {
		mu.Lock()
		defer mu.Unlock()
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", res.Path, res.Err)
			return
		}
		_ = enc.Encode(struct {
			Path    string                    `json:"path"`
			Receipt *extract.ExtractedReceipt `json:"receipt"`
		}{res.Path, res.Receipt})
	}

	if follow {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := p.Watch(ctx, args[0], workers, report); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
	return p.ProcessDir(context.Background(), args[0], workers, report)
}
