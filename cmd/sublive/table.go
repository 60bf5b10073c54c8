package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sublive/sublive/caption"
	"github.com/sublive/sublive/config"
)

// printCaptions redraws the visible caption lines on every update.
func printCaptions(lines []caption.Line) {
	if len(lines) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, WidthMax: 78},
	})
	for _, l := range lines {
		tw.AppendRow(table.Row{l.String()})
	}
	fmt.Fprintln(os.Stdout, tw.Render())
}

// renderConfig prints the effective configuration as a two-column table,
// with credentials masked.
func renderConfig(cfg *config.Config) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Setting", "Value"})

	rows := []table.Row{
		{"default_language", cfg.DefaultLanguage},
		{"target_language", cfg.TargetLanguage},
		{"audio_source", cfg.AudioSource},
		{"max_visible_lines", cfg.MaxVisibleLines},
		{"fade_timeout_seconds", cfg.FadeTimeoutSeconds},
		{"min_detection_text_length", cfg.MinDetectionTextLength},
		{"detection_confidence_threshold", cfg.DetectionConfidenceThreshold},
		{"detection_cooldown_seconds", cfg.DetectionCooldownSeconds},
		{"listen_addr", cfg.ListenAddr},
		{"speech.api_key", maskKey(cfg.Speech.APIKey)},
		{"translate.api_key", maskKey(cfg.Translate.APIKey)},
	}
	tw.AppendRows(rows)
	return tw.Render()
}

func maskKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
