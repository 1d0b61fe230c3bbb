package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"funnel-workers/internal/common/logger"
	"funnel-workers/internal/funnel/analyzer"
	"funnel-workers/internal/funnel/sections"
	"funnel-workers/internal/funnel/structure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := run(t, "", "analyze", "friendly", "yoga", "studio", "with", "testimonials")
	require.NoError(t, err)

	var got analyzer.PromptAnalysis
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "friendly", got.ToneOfVoice)
	assert.Contains(t, got.SuggestedSections, "testimonials")
}

func TestAnalyzeCommand_Stdin(t *testing.T) {
	out, err := run(t, "learn to bake with our video course\n", "analyze")
	require.NoError(t, err)
	assert.Contains(t, out, `"toneOfVoice": "educational"`)

	_, err = run(t, "  ", "analyze")
	assert.EqualError(t, err, "prompt is required")
}

func TestStructureCommand_UrgencyPolicy(t *testing.T) {
	tests := []struct {
		policy      string
		wantUrgency bool
	}{
		{"strict", false},
		{"legacy", true},
	}

	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			out, err := run(t, "", "structure", "--urgency-policy", tt.policy, "luxury watches, limited edition")
			require.NoError(t, err)

			var res structure.Resolution
			require.NoError(t, json.Unmarshal([]byte(out), &res))
			if tt.wantUrgency {
				assert.Contains(t, res.EnabledSections, "urgency")
			} else {
				assert.NotContains(t, res.EnabledSections, "urgency")
			}
		})
	}

	_, err := run(t, "", "structure", "--urgency-policy", "loose", "anything")
	assert.Error(t, err)
}

func TestProfileCommand_YAML(t *testing.T) {
	out, err := run(t, "", "profile", "-o", "yaml", "Summit Advisors, a wealth management firm")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	info, ok := got["businessInfo"].(map[string]interface{})
	require.True(t, ok, "businessInfo keeps its json name")
	assert.Equal(t, "finance", info["industry"])
}

func TestRulesCommand(t *testing.T) {
	out, err := run(t, "", "rules")
	require.NoError(t, err)

	var dump rulesDump
	require.NoError(t, json.Unmarshal([]byte(out), &dump))
	assert.Equal(t, "friendly", dump.DefaultTone)
	assert.NotEmpty(t, dump.Keywords)
	assert.Contains(t, dump.Tones, "luxury")
	assert.Contains(t, dump.Sections, "hero")
}

func TestActivitiesCommands(t *testing.T) {
	out, err := run(t, "", "activities", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "TASK TYPE")
	assert.Contains(t, out, "notify-funnel-owner")

	out, err = run(t, "", "activities", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 6 activities")

	out, err = run(t, "", "activities", "schema", "analyze-funnel-prompt")
	require.NoError(t, err)
	assert.Contains(t, out, `"prompt"`)

	_, err = run(t, "", "activities", "schema", "send-fax")
	assert.Error(t, err)
}

type fakeWriter struct {
	failOn  string
	written []string
}

func (f *fakeWriter) UpsertTemplate(_ context.Context, t sections.Template) error {
	if t.SectionType == f.failOn {
		return errors.New("unique violation")
	}
	f.written = append(f.written, t.SectionType)
	return nil
}

type fakeIndexer struct {
	indexed int
}

func (f *fakeIndexer) IndexTemplates(_ context.Context, templates []sections.Template) error {
	f.indexed += len(templates)
	return nil
}

func TestSeedCatalog(t *testing.T) {
	templates, err := sections.DefaultTemplates()
	require.NoError(t, err)

	t.Run("upserts and indexes", func(t *testing.T) {
		w, idx := &fakeWriter{}, &fakeIndexer{}
		res, err := seedCatalog(context.Background(), w, idx, templates, logger.NewTestLogger(t))
		require.NoError(t, err)
		assert.Equal(t, len(templates), res.Upserted)
		assert.Equal(t, len(templates), res.Indexed)
		assert.Len(t, w.written, len(templates))
	})

	t.Run("without search", func(t *testing.T) {
		res, err := seedCatalog(context.Background(), &fakeWriter{}, nil, templates, logger.NewTestLogger(t))
		require.NoError(t, err)
		assert.Zero(t, res.Indexed)
	})

	t.Run("stops on first failure", func(t *testing.T) {
		w, idx := &fakeWriter{failOn: templates[1].SectionType}, &fakeIndexer{}
		res, err := seedCatalog(context.Background(), w, idx, templates, logger.NewTestLogger(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unique violation")
		assert.Equal(t, 1, res.Upserted)
		assert.Zero(t, idx.indexed)
	})
}
