package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ruleforge/internal/config"
	"ruleforge/internal/eval"
	"ruleforge/internal/form"
	"ruleforge/internal/llm"
	"ruleforge/internal/match"
	"ruleforge/internal/profile"
	"ruleforge/internal/render"
)

type evaluateFlags struct {
	generatedFile string
	referenceFile string
	out           string
	format        string
	profileName   string
	threshold     float64
}

func newEvaluateCmd(configPath *string) *cobra.Command {
	var f evaluateFlags
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a generated rule set against a reference rule set",
		Long: `Evaluate matches the generated field set against the reference set,
then matches rules within each field pair, and reports coverage
ratios, an overall score, and a categorized discrepancy list.
Exits 2 when the evaluation fails the pass threshold.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, func(c *config.Config) {
				if cmd.Flags().Changed("profile") {
					c.Profile = f.profileName
				}
				if cmd.Flags().Changed("threshold") {
					c.PassThreshold = f.threshold
				}
			})
			if err != nil {
				return err
			}
			return runEvaluate(cmd.Context(), f, cfg)
		},
	}
	cmd.Flags().StringVar(&f.generatedFile, "generated", "", "generated field container JSON (required)")
	cmd.Flags().StringVar(&f.referenceFile, "reference", "", "reference field container JSON (required)")
	cmd.Flags().StringVar(&f.out, "out", "", "output path, defaults to stdout")
	cmd.Flags().StringVar(&f.format, "format", "json", "output format: json or markdown")
	cmd.Flags().StringVar(&f.profileName, "profile", "", "evaluation profile: general, strict, lenient")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 0, "pass threshold override")
	cmd.MarkFlagRequired("generated")
	cmd.MarkFlagRequired("reference")
	return cmd
}

func runEvaluate(ctx context.Context, f evaluateFlags, cfg *config.Config) error {
	if f.format != "json" && f.format != "markdown" {
		return fmt.Errorf("unknown format %q (json, markdown)", f.format)
	}

	prof, err := profile.Load(cfg.Profile)
	if err != nil {
		return err
	}
	// The profile supplies thresholds; explicit configuration wins.
	passThreshold := prof.PassThreshold
	if cfg.PassThreshold != config.DefaultPassThreshold {
		passThreshold = cfg.PassThreshold
	}
	fuzzyThreshold := prof.FuzzyThreshold
	if cfg.FuzzyThreshold != config.DefaultFuzzyThreshold {
		fuzzyThreshold = cfg.FuzzyThreshold
	}

	generated, err := form.Load(f.generatedFile)
	if err != nil {
		return err
	}
	reference, err := form.Load(f.referenceFile)
	if err != nil {
		return err
	}

	var matcher match.SemanticMatcher
	if cfg.Semantic {
		m, err := llm.NewMatcher(llm.Options{
			Provider: cfg.Provider,
			Model:    cfg.Model,
			Addendum: prof.MatcherAddendum,
			Debug:    cfg.Debug,
		})
		if err != nil {
			return err
		}
		matcher = m
	}

	engine := eval.NewEngine(match.NewComparator(matcher, fuzzyThreshold), passThreshold)
	result := engine.Evaluate(ctx, generated, reference)
	slog.Info("evaluation complete",
		"score", fmt.Sprintf("%.3f", result.OverallScore),
		"passed", result.Passed,
		"discrepancies", len(result.AllDiscrepancies))

	var output []byte
	switch f.format {
	case "markdown":
		output = []byte(render.RenderMarkdown(&result))
	default:
		output, err = render.RenderJSON(&result)
		if err != nil {
			return err
		}
	}

	if f.out == "" {
		fmt.Fprintln(os.Stdout, string(output))
	} else if err := os.WriteFile(f.out, append(output, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.out, err)
	}

	if !result.Passed {
		return &exitError{code: exitCodeEvalFailed}
	}
	return nil
}
