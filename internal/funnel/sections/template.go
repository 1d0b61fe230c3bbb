// Package sections owns the section template catalog: validation, storage in
// Postgres, discovery through Elasticsearch and placeholder rendering.
package sections

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ComplexityLevel string

const (
	ComplexityBeginner     ComplexityLevel = "beginner"
	ComplexityIntermediate ComplexityLevel = "intermediate"
	ComplexityAdvanced     ComplexityLevel = "advanced"

	MinImpactScore = 0.0
	MaxImpactScore = 10.0
)

var (
	ErrTemplateNotFound         = errors.New("TEMPLATE_NOT_FOUND")
	ErrTemplateValidationFailed = errors.New("TEMPLATE_VALIDATION_FAILED")
)

var optionTypes = map[string]bool{
	"string":  true,
	"boolean": true,
	"integer": true,
	"number":  true,
}

// ConfigOption describes one configurable knob of a section.
type ConfigOption struct {
	Type          string        `json:"type" yaml:"type"`
	AllowedValues []interface{} `json:"allowedValues,omitempty" yaml:"allowedValues"`
	Default       interface{}   `json:"default" yaml:"default"`
}

// Template is a reusable building block of a funnel page.
type Template struct {
	Name                 string                  `json:"name" yaml:"name"`
	SectionType          string                  `json:"sectionType" yaml:"sectionType"`
	Category             string                  `json:"category" yaml:"category"`
	Description          string                  `json:"description" yaml:"description"`
	ContentTemplate      map[string]interface{}  `json:"contentTemplate" yaml:"contentTemplate"`
	ConfigurationOptions map[string]ConfigOption `json:"configurationOptions" yaml:"configurationOptions"`
	IndustryTags         []string                `json:"industryTags" yaml:"industryTags"`
	UseCaseTags          []string                `json:"useCaseTags" yaml:"useCaseTags"`
	ImpactScore          float64                 `json:"impactScore" yaml:"impactScore"`
	ComplexityLevel      ComplexityLevel         `json:"complexityLevel" yaml:"complexityLevel"`
	IsPremium            bool                    `json:"isPremium" yaml:"isPremium"`
}

func (t Template) Validate() error {
	if strings.TrimSpace(t.SectionType) == "" {
		return fmt.Errorf("%w: sectionType is required", ErrTemplateValidationFailed)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: %s: name is required", ErrTemplateValidationFailed, t.SectionType)
	}
	if t.ImpactScore < MinImpactScore || t.ImpactScore > MaxImpactScore {
		return fmt.Errorf("%w: %s: impactScore %.2f outside [%.0f, %.0f]",
			ErrTemplateValidationFailed, t.SectionType, t.ImpactScore, MinImpactScore, MaxImpactScore)
	}
	switch t.ComplexityLevel {
	case ComplexityBeginner, ComplexityIntermediate, ComplexityAdvanced:
	default:
		return fmt.Errorf("%w: %s: unknown complexityLevel %q", ErrTemplateValidationFailed, t.SectionType, t.ComplexityLevel)
	}
	for name, opt := range t.ConfigurationOptions {
		if !optionTypes[opt.Type] {
			return fmt.Errorf("%w: %s: option %s has unsupported type %q", ErrTemplateValidationFailed, t.SectionType, name, opt.Type)
		}
	}
	if err := t.ValidateOptions(t.DefaultOptions()); err != nil {
		return fmt.Errorf("default options: %w", err)
	}
	return nil
}

// DefaultOptions returns the default value of every configuration option.
func (t Template) DefaultOptions() map[string]interface{} {
	out := make(map[string]interface{}, len(t.ConfigurationOptions))
	for name, opt := range t.ConfigurationOptions {
		out[name] = opt.Default
	}
	return out
}

// OptionsSchema renders the configuration options as a JSON schema document.
func (t Template) OptionsSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(t.ConfigurationOptions))
	for name, opt := range t.ConfigurationOptions {
		prop := map[string]interface{}{"type": opt.Type}
		if len(opt.AllowedValues) > 0 {
			prop["enum"] = opt.AllowedValues
		}
		properties[name] = prop
	}
	return map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}

// ValidateOptions checks caller supplied option values against the template.
func (t Template) ValidateOptions(values map[string]interface{}) error {
	if values == nil {
		values = map[string]interface{}{}
	}
	schemaLoader := gojsonschema.NewGoLoader(t.OptionsSchema())
	documentLoader := gojsonschema.NewGoLoader(values)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTemplateValidationFailed, t.SectionType, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		sort.Strings(errs)
		return fmt.Errorf("%w: %s: %s", ErrTemplateValidationFailed, t.SectionType, strings.Join(errs, "; "))
	}
	return nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
