// cmd/tools/funnelctl/main.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"funnel-workers/internal/funnel/analyzer"
	"funnel-workers/internal/funnel/lexicon"
	"funnel-workers/internal/funnel/structure"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type rootOptions struct {
	rulesPath string
	policy    string
	matcher   string
	output    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "funnelctl",
		Short: "Operate the funnel rule engine from the command line",
		Long: `funnelctl runs the funnel rule engine offline and manages its stores.

Commands:
  analyze       Detect keywords, sections and tone in a prompt
  structure     Resolve sections, order and microcopy for a prompt
  profile       Infer the customer profile behind a prompt
  rules         Print the keyword and tone tables
  seed-catalog  Upsert the built-in section catalog into Postgres and Elasticsearch
  activities    Inspect and validate the activity registry`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.rulesPath, "rules", "", "Rule tables file (default: embedded rules)")
	root.PersistentFlags().StringVar(&opts.policy, "urgency-policy", string(structure.UrgencyStrict), "Urgency policy: strict or legacy")
	root.PersistentFlags().StringVar(&opts.matcher, "matcher", "substring", "Keyword matcher: substring or word_boundary")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "Output format: json or yaml")

	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newStructureCmd(opts))
	root.AddCommand(newProfileCmd(opts))
	root.AddCommand(newRulesCmd(opts))
	root.AddCommand(newSeedCatalogCmd())
	root.AddCommand(newActivitiesCmd())
	return root
}

func (o *rootOptions) lexicon() (*lexicon.Lexicon, error) {
	if o.rulesPath == "" {
		return lexicon.Default(), nil
	}
	lex, err := lexicon.LoadFile(o.rulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return lex, nil
}

func (o *rootOptions) analyzer() (*analyzer.Analyzer, error) {
	lex, err := o.lexicon()
	if err != nil {
		return nil, err
	}
	switch o.matcher {
	case "substring", "":
		return analyzer.New(lex), nil
	case "word_boundary":
		return analyzer.New(lex, analyzer.WithMatcher(analyzer.NewWordBoundaryMatcher())), nil
	default:
		return nil, fmt.Errorf("unknown matcher %q", o.matcher)
	}
}

func (o *rootOptions) engine() (*structure.Engine, error) {
	a, err := o.analyzer()
	if err != nil {
		return nil, err
	}
	policy := structure.UrgencyPolicy(o.policy)
	if policy != structure.UrgencyStrict && policy != structure.UrgencyLegacy {
		return nil, fmt.Errorf("unknown urgency policy %q", o.policy)
	}
	return structure.NewEngine(a, structure.WithUrgencyPolicy(policy)), nil
}

func (o *rootOptions) print(w io.Writer, v interface{}) error {
	switch o.output {
	case "yaml":
		// round-trip through JSON so keys keep their json tag names
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", o.output)
	}
}

// promptArg joins positional args, or reads stdin when there are none.
func promptArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}
	return prompt, nil
}
