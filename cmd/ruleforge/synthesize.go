package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ruleforge/internal/catalog"
	"ruleforge/internal/config"
	"ruleforge/internal/form"
	"ruleforge/internal/llm"
	"ruleforge/internal/match"
	"ruleforge/internal/schema"
	"ruleforge/internal/synth"
)

type synthesizeFlags struct {
	fieldsFile  string
	catalogFile string
	out         string
	provider    string
	model       string
	idBase      int
	semantic    bool
}

func newSynthesizeCmd(configPath *string) *cobra.Command {
	var f synthesizeFlags
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Generate form-fill rules from the logic text attached to form fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, func(c *config.Config) {
				if cmd.Flags().Changed("provider") {
					c.Provider = f.provider
				}
				if cmd.Flags().Changed("model") {
					c.Model = f.model
				}
				if cmd.Flags().Changed("id-base") {
					c.RuleIDBase = f.idBase
				}
				if cmd.Flags().Changed("semantic") {
					c.Semantic = f.semantic
				}
			})
			if err != nil {
				return err
			}
			return runSynthesize(cmd.Context(), f, cfg)
		},
	}
	cmd.Flags().StringVar(&f.fieldsFile, "fields", "", "field container JSON with logic text (required)")
	cmd.Flags().StringVar(&f.catalogFile, "catalog", "", "rule schema catalog JSON (required)")
	cmd.Flags().StringVar(&f.out, "out", "", "output path, defaults to stdout")
	cmd.Flags().StringVar(&f.provider, "provider", "", "llm provider for semantic matching")
	cmd.Flags().StringVar(&f.model, "model", "", "llm model override")
	cmd.Flags().IntVar(&f.idBase, "id-base", 0, "rule id counter seed")
	cmd.Flags().BoolVar(&f.semantic, "semantic", true, "enable the llm semantic-match fallback")
	cmd.MarkFlagRequired("fields")
	cmd.MarkFlagRequired("catalog")
	return cmd
}

// loadConfig applies flag overrides on top of the viper precedence chain,
// then re-validates.
func loadConfig(path string, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	override(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newResolver builds the field-reference resolver, with the semantic step
// wired only when enabled.
func newResolver(cfg *config.Config, addendum string) (*match.Resolver, error) {
	opts := []match.Option{match.WithFuzzyThreshold(cfg.FuzzyThreshold)}
	if cfg.Semantic {
		matcher, err := llm.NewMatcher(llm.Options{
			Provider: cfg.Provider,
			Model:    cfg.Model,
			Addendum: addendum,
			Debug:    cfg.Debug,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, match.WithSemanticMatcher(matcher))
	}
	return match.NewResolver(opts...), nil
}

func runSynthesize(ctx context.Context, f synthesizeFlags, cfg *config.Config) error {
	cat, err := catalog.Load(f.catalogFile)
	if err != nil {
		return err
	}
	fields, err := form.Load(f.fieldsFile)
	if err != nil {
		return err
	}
	resolver, err := newResolver(cfg, "")
	if err != nil {
		return err
	}

	records := form.Records(fields)
	s := synth.New(cat, resolver, synth.NewCounter(cfg.RuleIDBase))

	rulesByField := make(map[int][]schema.GeneratedRule)
	total := 0
	for _, rec := range records {
		if rec.Logic == "" {
			continue
		}
		rules := s.SynthesizeField(ctx, rec, records)
		if len(rules) > 0 {
			rulesByField[rec.ID] = rules
			total += len(rules)
		}
		slog.Debug("synthesized field", "field", rec.Name, "rules", len(rules))
	}
	slog.Info("synthesis complete", "fields", len(records), "rules", total)

	out := form.Attach(records, rulesByField)
	if f.out == "" {
		data, err := form.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}
	return form.Save(f.out, out)
}
