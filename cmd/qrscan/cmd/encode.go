package cmd

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	qrcodec "github.com/ericlevine/qrcodec"
	"github.com/ericlevine/qrcodec/qrcode"
	"github.com/ericlevine/qrcodec/qrcode/encoder"
	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func newEncodeCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "encode <text>",
		Short: "Encode text into a QR code",
		Long: `Encode writes text as a QR code. With --output the symbol is saved as
a PNG, BMP or TIFF image chosen by the file extension; without it the
symbol is drawn on standard output with block characters.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEncode(cmd.OutOrStdout(), args[0], output)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "image file to write (.png, .bmp, .tif or .tiff)")
	flags.StringP("level", "l", "M", "error correction level (L, M, Q, H)")
	flags.Int("version", 0, "symbol version 1-40 (0 picks the smallest that fits)")
	flags.Int("mask", -1, "data mask 0-7 (-1 picks the best)")
	flags.String("charset", "", "character set for byte mode, announced with an ECI")
	flags.Int("scale", 8, "pixels per module")
	flags.Int("margin", 4, "quiet zone in modules")
	bindFlags(a.loader.Viper(), flags, map[string]string{
		"encode.level":   "level",
		"encode.version": "version",
		"encode.mask":    "mask",
		"encode.charset": "charset",
		"encode.scale":   "scale",
		"encode.margin":  "margin",
	})
	return cmd
}

func (a *app) runEncode(out io.Writer, text, output string) error {
	code, err := qrcode.NewWriter().EncodeSymbol(text, a.cfg.ToEncodeOptions())
	if err != nil {
		return err
	}
	a.logger.Debug("encoded symbol", "version", code.Version.Number, "ec_level", code.ECLevel,
		"mode", code.Mode, "mask", int(code.Mask))

	margin := a.cfg.Encode.Margin
	if output == "" {
		matrix := encoder.RenderResult(code, 0, 0, margin)
		_, err := io.WriteString(out, matrix.StringWithChars("██", "  "))
		return err
	}

	size := (code.Matrix.Width() + 2*margin) * a.cfg.Encode.Scale
	img := qrcodec.BitMatrixToImage(encoder.RenderResult(code, size, size, margin))
	if err := writeImage(output, img); err != nil {
		return err
	}
	a.logger.Info("wrote symbol", "file", output, "version", code.Version.Number, "pixels", size)
	return nil
}

func writeImage(path string, img image.Image) error {
	var encode func(io.Writer, image.Image) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		encode = png.Encode
	case ".bmp":
		encode = bmp.Encode
	case ".tif", ".tiff":
		encode = func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
		}
	default:
		return fmt.Errorf("unsupported output format %q (use .png, .bmp, .tif or .tiff)", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
