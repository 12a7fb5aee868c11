package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"atsresume/internal/artifact"
	"atsresume/internal/common"
	"atsresume/internal/config"
	"atsresume/internal/errors"
	"atsresume/internal/notify"
	"atsresume/internal/types"
	"atsresume/internal/upload"
	"atsresume/internal/workflow"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Optimize a resume PDF for a job description",
	Long: `Upload a resume PDF and a job description to the optimization service,
then print the tailored resume with its ATS compatibility score.

The job description is given inline with --job-description or read from a
text file with --job-file, and must be at least 50 characters long. With
--download the generated PDF is saved to --output, which is a directory, a
.pdf file path or an s3://bucket/prefix location.`,
	Example: `  atsresume generate --resume resume.pdf --job-file job.txt
  atsresume generate -r resume.pdf -j "$(cat job.txt)" --format markdown --report result.md
  atsresume generate -r resume.pdf --job-file job.txt --download --output s3://my-bucket/resumes`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if generateFlags.OutputFormat == "" {
			generateFlags.OutputFormat = cfg.App.DefaultFormat
		}
		if generateFlags.JobDescription != "" && generateFlags.JobFile != "" {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				"use either --job-description or --job-file, not both", nil)
		}
		return common.ValidateOutputFormat(generateFlags.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runGenerate,
}

// generateOptions are the inputs of one generate run.
type generateOptions struct {
	common.CommandConfig
	ResumeFile     string
	JobDescription string
	JobFile        string
	ExtraInfo      string
	Download       bool
	Target         string
}

var generateFlags generateOptions

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateFlags.ResumeFile, "resume", "r", "", "Resume PDF to optimize")
	f.StringVarP(&generateFlags.JobDescription, "job-description", "j", "", "Job description text")
	f.StringVar(&generateFlags.JobFile, "job-file", "", "Read the job description from a text file (- for stdin)")
	f.StringVar(&generateFlags.ExtraInfo, "extra-info", "", "Additional information for the optimizer (optional)")
	f.BoolVar(&generateFlags.Download, "download", false, "Download the generated PDF")
	f.StringVarP(&generateFlags.Target, "output", "o", "", "Where --download saves the PDF (default: app.outputDir)")
	f.StringVar(&generateFlags.OutputFormat, "format", "", "Output format: json, text, or markdown")
	f.StringVar(&generateFlags.OutputFile, "report", "", "Write the rendered result to this file instead of stdout")

	_ = generateCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	be, err := newBackend(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer be.close()

	ctx, end := be.span(cmd.Context(), "atsresume.generate")
	defer end()

	return generate(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, logger, be, generateFlags)
}

// cliNavigator keeps the result handed over by the form.
type cliNavigator struct {
	result *workflow.Result
}

func (n *cliNavigator) ShowResults(r *workflow.Result) { n.result = r }
func (n *cliNavigator) Redirect(workflow.Route)       {}

// generate runs upload, form submission, result rendering and the optional
// download. Rendered output goes to stdout; progress and notifications to stderr.
func generate(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, logger *errors.Logger, be *backend, opts generateOptions) error {
	fp := common.NewFileProcessor(logger)
	notifier := notify.NewWriterNotifier(stderr)

	jobDescription := opts.JobDescription
	if opts.JobFile != "" {
		text, err := fp.ReadJobDescription(opts.JobFile)
		if err != nil {
			return err
		}
		jobDescription = text
	}

	nav := &cliNavigator{}
	form := workflow.NewFormController(be.service,
		workflow.WithNavigator(nav),
		workflow.WithNotifier(notifier),
		workflow.WithEvents(be.events),
		workflow.WithLogger(logger),
	)

	if opts.ResumeFile != "" {
		picker := upload.NewControl(cfg.App.MaxFileSize, form.SetFile)
		if err := picker.Select([]upload.Candidate{upload.CandidateFromPath(opts.ResumeFile)}); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Selected %s\n", picker.Selected().Describe())
	}
	form.SetJobDescription(jobDescription)
	form.SetExtraInfo(opts.ExtraInfo)

	if _, err := form.Submit(ctx); err != nil {
		printFieldErrors(stderr, workflow.FieldErrors(err))
		return err
	}

	var saver workflow.Saver
	if opts.Download {
		target := opts.Target
		if target == "" {
			target = cfg.App.OutputDir
		}
		s, err := artifact.NewSaver(ctx, target, cfg.Storage.S3)
		if err != nil {
			return err
		}
		saver = s
	}

	results := workflow.NewResultsController(be.service, saver,
		workflow.WithResultsNotifier(notifier),
		workflow.WithResultsEvents(be.events),
		workflow.WithResultsLogger(logger),
	)
	if !results.Enter(nav.result) {
		return errors.NewInternalError(errors.ErrCodeInvalidRequest, "no result to display", nil)
	}

	view := types.NewResultView(nav.result.OriginalFileName, nav.result.Resume)
	out := common.NewOutputHandlerWithWriter(logger, stdout)
	if err := out.HandleOutput(view, opts.CommandConfig); err != nil {
		return err
	}

	if !opts.Download {
		return nil
	}
	location, err := results.Download(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Saved PDF to %s\n", location)
	return nil
}

func printFieldErrors(w io.Writer, fieldErrs map[workflow.Field]string) {
	if len(fieldErrs) == 0 {
		return
	}
	fields := make([]string, 0, len(fieldErrs))
	for f := range fieldErrs {
		fields = append(fields, string(f))
	}
	slices.Sort(fields)

	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "  %s: %s\n", f, fieldErrs[workflow.Field(f)])
	}
	fmt.Fprint(w, b.String())
}
