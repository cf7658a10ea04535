package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"time"

	"github.com/disintegration/imaging"
	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/internal/metrics"
	"github.com/ericlevine/qrcodec/qrcode"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// fileResult is the outcome for one input file, as printed by the
// json and yaml formats.
type fileResult struct {
	File                string `json:"file" yaml:"file"`
	Text                string `json:"text,omitempty" yaml:"text,omitempty"`
	Version             int    `json:"version,omitempty" yaml:"version,omitempty"`
	ECLevel             string `json:"ec_level,omitempty" yaml:"ec_level,omitempty"`
	Mask                int    `json:"mask,omitempty" yaml:"mask,omitempty"`
	Mirrored            bool   `json:"mirrored,omitempty" yaml:"mirrored,omitempty"`
	ErrorsCorrected     int    `json:"errors_corrected,omitempty" yaml:"errors_corrected,omitempty"`
	SymbologyIdentifier string `json:"symbology_identifier,omitempty" yaml:"symbology_identifier,omitempty"`
	Error               string `json:"error,omitempty" yaml:"error,omitempty"`
	Stage               string `json:"stage,omitempty" yaml:"stage,omitempty"`
}

func newDecodeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <image>...",
		Short: "Decode the QR code in each image file",
		Long: `Decode reads one QR code from each image file. PNG, JPEG, GIF, BMP,
TIFF and WebP images are supported. Files are decoded concurrently and
the results are printed in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDecode(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	flags := cmd.Flags()
	flags.Bool("pure", false, "assume an unrotated symbol on a plain background")
	flags.Bool("try-harder", false, "scan every row for finder patterns")
	flags.String("charset", "", "character set for byte segments without an ECI")
	flags.IntP("workers", "w", 4, "number of files decoded concurrently")
	flags.Int("max-dimension", 0, "shrink images larger than this many pixels first (0 keeps them)")
	flags.StringP("format", "f", "text", "output format (text, json, yaml)")
	flags.String("metrics-file", "", "write Prometheus metrics to this file")
	bindFlags(a.loader.Viper(), flags, map[string]string{
		"decode.pure":          "pure",
		"decode.try_harder":    "try-harder",
		"decode.charset":       "charset",
		"decode.workers":       "workers",
		"decode.max_dimension": "max-dimension",
		"decode.output_format": "format",
		"decode.metrics_file":  "metrics-file",
	})
	return cmd
}

func (a *app) runDecode(ctx context.Context, out io.Writer, files []string) error {
	cfg := a.cfg.Decode
	opts := a.cfg.ToDecodeOptions(a.logger)
	reader := qrcode.NewReader()

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
	}

	results := make([]fileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			result, err := decodeFile(reader, path, cfg.MaxDimension, opts)
			recorder.Observe(result, err, time.Since(start))
			results[i] = newFileResult(path, result, err)
			if err != nil {
				a.logger.Warn("decode failed", "file", path, "stage", qrcodec.StageOf(err), "error", err)
			} else {
				a.logger.Debug("decoded", "file", path, "version", result.Version,
					"ec_level", result.ECLevel, "elapsed", time.Since(start))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := writeResults(out, cfg.OutputFormat, results); err != nil {
		return err
	}
	if recorder != nil {
		if err := recorder.WriteToTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be decoded", failed, len(files))
	}
	return nil
}

func decodeFile(reader *qrcode.Reader, path string, maxDimension int, opts *qrcode.DecodeOptions) (*qrcode.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	if maxDimension > 0 && (bounds.Dx() > maxDimension || bounds.Dy() > maxDimension) {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
		opts.Logger.Debug("downscaled image", "file", path, "format", format,
			"from", bounds.Size(), "to", img.Bounds().Size())
	}
	return reader.DecodeImage(img, opts)
}

func newFileResult(path string, result *qrcode.Result, err error) fileResult {
	if err != nil {
		return fileResult{File: path, Error: err.Error(), Stage: string(qrcodec.StageOf(err))}
	}
	return fileResult{
		File:                path,
		Text:                result.Text,
		Version:             result.Version,
		ECLevel:             result.ECLevel.String(),
		Mask:                result.Mask,
		Mirrored:            result.Mirrored,
		ErrorsCorrected:     result.ErrorsCorrected,
		SymbologyIdentifier: result.SymbologyIdentifier,
	}
}

func writeResults(out io.Writer, format string, results []fileResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(results)
	default:
		for _, r := range results {
			var err error
			switch {
			case r.Error != "":
				_, err = fmt.Fprintf(out, "%s: error: %s\n", r.File, r.Error)
			case len(results) == 1:
				_, err = fmt.Fprintln(out, r.Text)
			default:
				_, err = fmt.Fprintf(out, "%s: %s\n", r.File, r.Text)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}
}
