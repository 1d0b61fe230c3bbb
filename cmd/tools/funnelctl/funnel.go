// cmd/tools/funnelctl/funnel.go
package main

import (
	"funnel-workers/internal/funnel/lexicon"
	"funnel-workers/internal/funnel/profile"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [prompt...]",
		Short: "Detect keywords, sections and tone in a prompt",
		Example: `  funnelctl analyze "luxury watches, limited edition"
  echo "friendly yoga studio" | funnelctl analyze`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := promptArg(cmd, args)
			if err != nil {
				return err
			}
			a, err := opts.analyzer()
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), a.Analyze(prompt))
		},
	}
}

func newStructureCmd(opts *rootOptions) *cobra.Command {
	var (
		industry   string
		objectives []string
	)
	cmd := &cobra.Command{
		Use:   "structure [prompt...]",
		Short: "Resolve sections, order and microcopy for a prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := promptArg(cmd, args)
			if err != nil {
				return err
			}
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), engine.Apply(prompt, industry, objectives))
		},
	}
	cmd.Flags().StringVar(&industry, "industry", "", "Business industry, e.g. fashion or finance")
	cmd.Flags().StringSliceVar(&objectives, "objective", nil, "Funnel objective (repeatable)")
	return cmd
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [prompt...]",
		Short: "Infer the customer profile behind a prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := promptArg(cmd, args)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), profile.NewExtractor().Extract(prompt))
		},
	}
}

type toneDump struct {
	Rule lexicon.ToneRule `json:"rule"`
	CTA  lexicon.CTA      `json:"cta"`
}

type rulesDump struct {
	DefaultTone  string                 `json:"defaultTone"`
	Keywords     []lexicon.KeywordEntry `json:"keywords"`
	TonePatterns []lexicon.TonePattern  `json:"tonePatterns"`
	Tones        map[string]toneDump    `json:"tones"`
	Sections     []string               `json:"sections"`
}

func newRulesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the keyword and tone tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lex, err := opts.lexicon()
			if err != nil {
				return err
			}
			dump := rulesDump{
				DefaultTone:  lex.DefaultTone(),
				Keywords:     lex.Keywords(),
				TonePatterns: lex.TonePatterns(),
				Tones:        make(map[string]toneDump, len(lex.Tones())),
				Sections:     lex.Sections(),
			}
			for _, tone := range lex.Tones() {
				dump.Tones[tone] = toneDump{Rule: lex.Rule(tone), CTA: lex.CTA(tone)}
			}
			return opts.print(cmd.OutOrStdout(), dump)
		},
	}
}
