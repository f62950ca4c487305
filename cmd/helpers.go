package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"voicecmd/core/audio"
	"voicecmd/core/catalog"
	"voicecmd/core/inference"
	"voicecmd/logger"
	"voicecmd/model"
)

// newTranscriber prefers the local model command over the HTTP endpoint.
func newTranscriber() inference.Transcriber {
	if len(cfg.ModelCommand) > 0 {
		logger.Info("using model command", logger.Strings("command", cfg.ModelCommand))
		return inference.NewCommandTranscriber(cfg.ModelCommand)
	}
	logger.Info("using model endpoint", logger.String("url", cfg.ModelURL))
	return inference.NewHTTPTranscriber(cfg.ModelURL)
}

// modelID identifies the model the transcriber talks to, so cached labels
// from a previous model are not served after a restart.
func modelID() string {
	if cfg.CacheNamespace != "" {
		return cfg.CacheNamespace
	}
	if len(cfg.ModelCommand) > 0 {
		return "cmd:" + strings.Join(cfg.ModelCommand, " ")
	}
	return "url:" + cfg.ModelURL
}

// newCatalog accepts .wav plus every configured extra extension, the latter
// probed with ffprobe.
func newCatalog() *catalog.Catalog {
	if len(cfg.ExtraAudioExts) == 0 {
		return catalog.New()
	}
	prober := audio.NewFFmpegProcessor(cfg.FFmpegPath)
	opts := make([]catalog.Option, 0, len(cfg.ExtraAudioExts))
	for _, ext := range cfg.ExtraAudioExts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		opts = append(opts, catalog.WithProber(ext, prober))
	}
	return catalog.New(opts...)
}

func loadLabels() (model.LabelTable, error) {
	if cfg.LabelsFile == "" {
		return model.DefaultLabels, nil
	}
	return model.LoadLabels(cfg.LabelsFile)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newProgress returns a bar on interactive terminals and nil otherwise.
func newProgress(total int, description string) *progressbar.ProgressBar {
	if total <= 0 || !isTerminal(os.Stderr) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
