package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"zeropoint/api/internal/analysis"
	"zeropoint/api/internal/app"
	"zeropoint/api/internal/config"
	"zeropoint/api/internal/formatter"
	"zeropoint/api/internal/llm"
	"zeropoint/api/internal/logging"
	"zeropoint/api/internal/session"
	"zeropoint/api/internal/util"
)

type analyzeOptions struct {
	configPath  string
	llmName     string
	image       string
	mimeType    string
	output      string
	preview     bool
	batch       []string
	concurrency int
	verbose     bool
}

type input struct {
	Source string
	Req    analysis.Request
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze [TEXT]",
		Short: "Analyze a problem for hidden prerequisites",
		Long: `Analyze a JEE Mathematics problem given as text, an image, or both.

Examples:
  # Analyze a problem statement
  zeropoint analyze "Find the derivative of sin(x)·cos(x)"

  # Analyze a photo, watching the model answer arrive
  zeropoint analyze --image problem.jpg --preview

  # Read the problem from stdin and print YAML
  cat problem.txt | zeropoint analyze - -o yaml

  # Analyze many files, three at a time, with Claude
  zeropoint analyze --batch q1.txt,q2.png,q3.txt --llm claude -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a TOML config file")
	cmd.Flags().StringVar(&opts.llmName, "llm", "", "LLM to use (gemini, gpt, claude); defaults to DEFAULT_LLM or the first configured")
	cmd.Flags().StringVarP(&opts.image, "image", "i", "", "Image of the problem")
	cmd.Flags().StringVar(&opts.mimeType, "mime", "", "MIME type of --image; sniffed when empty")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "human", "Output format (human, json, yaml)")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "Print the raw model answer while it streams")
	cmd.Flags().StringSliceVar(&opts.batch, "batch", nil, "Analyze each file (text or image) separately")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 3, "Parallel analyses in batch mode")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts analyzeOptions) error {
	inputs, err := collectInputs(cmd.InOrStdin(), args, opts)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	level := "error"
	if opts.verbose {
		level = "debug"
	}
	log := logging.Must(level, opts.verbose)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	name := opts.llmName
	if name == "" {
		name = cfg.DefaultLLM
	}
	eng, err := a.Engines.GetEngine(name)
	if err != nil {
		return err
	}

	r := runner{
		analyzer:    a.Analyzer,
		eng:         eng,
		timeout:     cfg.RequestTimeout(),
		preview:     opts.preview,
		concurrency: opts.concurrency,
		status:      cmd.ErrOrStderr(),
	}
	reports := r.run(ctx, inputs)

	if err := formatter.Display(cmd.OutOrStdout(), reports, opts.output); err != nil {
		return err
	}
	failed := 0
	for _, rep := range reports {
		if rep.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", failed, len(reports))
	}
	return nil
}

// collectInputs turns the arguments into requests. TEXT "-" reads stdin.
func collectInputs(stdin io.Reader, args []string, opts analyzeOptions) ([]input, error) {
	if len(opts.batch) > 0 {
		if len(args) > 0 || opts.image != "" {
			return nil, fmt.Errorf("--batch cannot be combined with TEXT or --image")
		}
		inputs := make([]input, 0, len(opts.batch))
		for _, path := range opts.batch {
			in, err := readInputFile(path)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, in)
		}
		return inputs, nil
	}

	var req analysis.Request
	if len(args) == 1 {
		req.Text = args[0]
		if req.Text == "-" {
			b, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			req.Text = string(b)
		}
	}
	if opts.image != "" {
		img, err := readImage(opts.image, opts.mimeType)
		if err != nil {
			return nil, err
		}
		req.Image = img
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%s: pass TEXT, --image or --batch", analysis.UserMessage(err))
	}
	return []input{{Req: req}}, nil
}

func readImage(path, mimeType string) (*analysis.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > util.MaxImageBytes {
		return nil, fmt.Errorf("%s: %w", path, util.ErrImageTooLarge)
	}
	mime := util.PickMIME(mimeType, "", data)
	if !util.IsImage(mime) {
		return nil, fmt.Errorf("%s: not an image (%s)", path, mime)
	}
	return &analysis.Image{Data: data, MIMEType: mime}, nil
}

// readInputFile sniffs path: images are sent as images, anything else as text.
func readInputFile(path string) (input, error) {
	in := input{Source: filepath.Base(path)}
	data, err := os.ReadFile(path)
	if err != nil {
		return in, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return in, fmt.Errorf("%s: empty file", path)
	}
	if mime := util.PickMIME("", "", data); util.IsImage(mime) {
		img, err := readImage(path, mime)
		if err != nil {
			return in, err
		}
		in.Req.Image = img
		return in, nil
	}
	in.Req.Text = strings.TrimSpace(string(data))
	return in, nil
}

type runner struct {
	analyzer    *session.Analyzer
	eng         llm.Engine
	timeout     time.Duration
	preview     bool
	concurrency int
	// status receives the spinner and the preview
	status io.Writer
}

func (r runner) run(ctx context.Context, inputs []input) []formatter.Report {
	if len(inputs) == 1 {
		return []formatter.Report{r.single(ctx, inputs[0])}
	}
	return r.batch(ctx, inputs)
}

func (r runner) single(ctx context.Context, in input) formatter.Report {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(r.status))
	s.Suffix = fmt.Sprintf(" Analyzing with %s (%s)...", r.eng.Name(), r.eng.GetModel())

	var onProgress func(string)
	if r.preview {
		printed := 0
		onProgress = func(raw string) {
			fmt.Fprint(r.status, color.HiBlackString(raw[printed:]))
			printed = len(raw)
		}
	} else {
		s.Start()
		onProgress = func(raw string) {
			s.Lock()
			s.Suffix = fmt.Sprintf(" Analyzing with %s (%s)... %d characters", r.eng.Name(), r.eng.GetModel(), len([]rune(raw)))
			s.Unlock()
		}
	}

	out, err := r.analyzer.Run(ctx, r.eng, in.Req, onProgress)
	s.Stop()
	if r.preview {
		fmt.Fprintln(r.status)
	}
	return formatter.NewReport(in.Source, out, err)
}

// batch runs every input with at most r.concurrency in flight. One failure
// does not stop the others; it is recorded in its report.
func (r runner) batch(ctx context.Context, inputs []input) []formatter.Report {
	reports := make([]formatter.Report, len(inputs))

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(r.status))
	s.Suffix = fmt.Sprintf(" Analyzing %d inputs with %s...", len(inputs), r.eng.Name())
	s.Start()
	defer s.Stop()

	var done atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.concurrency, 1))
	for i, in := range inputs {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(gctx, r.timeout)
			defer cancel()
			out, err := r.analyzer.Run(ctx, r.eng, in.Req, nil)
			reports[i] = formatter.NewReport(in.Source, out, err)

			n := done.Add(1)
			s.Lock()
			s.Suffix = fmt.Sprintf(" %d/%d analysed with %s...", n, len(inputs), r.eng.Name())
			s.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return reports
}
