package cli

import (
	"context"
	"fmt"
	"io"

	"atsresume/internal/artifact"
	"atsresume/internal/config"
	"atsresume/internal/errors"
	"atsresume/internal/notify"
	"atsresume/internal/resume"
	"atsresume/internal/workflow"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download PDF_PATH",
	Short: "Download a previously generated resume PDF",
	Long: `Fetch a generated PDF by the pdfPath the service returned (shown in the
json output of generate) and save it to --output, which is a directory, a
.pdf file path or an s3://bucket/prefix location.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

var downloadTarget string

func init() {
	downloadCmd.Flags().StringVarP(&downloadTarget, "output", "o", "", "Where to save the PDF (default: app.outputDir)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	be, err := newBackend(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer be.close()

	ctx, end := be.span(cmd.Context(), "atsresume.download")
	defer end()

	return download(ctx, cmd.ErrOrStderr(), cfg, logger, be, args[0], downloadTarget)
}

func download(ctx context.Context, stderr io.Writer, cfg *config.Config, logger *errors.Logger, be *backend, pdfPath, target string) error {
	if target == "" {
		target = cfg.App.OutputDir
	}
	saver, err := artifact.NewSaver(ctx, target, cfg.Storage.S3)
	if err != nil {
		return err
	}

	results := workflow.NewResultsController(be.service, saver,
		workflow.WithResultsNotifier(notify.NewWriterNotifier(stderr)),
		workflow.WithResultsEvents(be.events),
		workflow.WithResultsLogger(logger),
	)
	results.Enter(&workflow.Result{Resume: &resume.GeneratedResume{PDFPath: pdfPath}})

	location, err := results.Download(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Saved PDF to %s\n", location)
	return nil
}
