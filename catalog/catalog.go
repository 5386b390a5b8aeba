// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/fieldcode/models"
)

// Marker kind constants
const (
	MarkerIncident  = "incident"
	MarkerChecklist = "checklist"
	MarkerNone      = "none"
)

// ParserConfig holds deployment-wide settings for normalization and envelope matching.
type ParserConfig struct {
	AllowedPunctuation    string            `yaml:"allowed_punctuation"`
	Substitutions         map[string]string `yaml:"substitutions,omitempty"`
	LocationTypes         []string          `yaml:"location_types"`
	MarkerKind            string            `yaml:"marker_kind,omitempty"`
	StrictUnexpectedInput bool              `yaml:"strict_unexpected_input"`
}

// SubstitutionTable returns the confusion table keyed by uppercase rune.
func (p ParserConfig) SubstitutionTable() map[rune]rune {
	table := make(map[rune]rune, len(p.Substitutions))
	for from, to := range p.Substitutions {
		f, _ := utf8.DecodeRuneInString(strings.ToUpper(from))
		t, _ := utf8.DecodeRuneInString(strings.ToUpper(to))
		table[f] = t
	}
	return table
}

// MarkerSelects returns the form kind the "!" marker selects, or "" when the
// marker is ignored.
func (p ParserConfig) MarkerSelects() models.FormKind {
	switch p.MarkerKind {
	case MarkerIncident:
		return models.FormKindIncident
	case MarkerChecklist:
		return models.FormKindChecklist
	}
	return ""
}

// Catalog is the parsed catalog file: parser settings plus every known form.
type Catalog struct {
	Version string                  `yaml:"version"`
	Parser  ParserConfig            `yaml:"parser"`
	Forms   []models.FormDefinition `yaml:"forms"`

	byPrefix map[string]*models.FormDefinition
}

// Load reads and validates a catalog file from the specified path
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	return &c, nil
}

// New builds a validated catalog from in-memory values.
func New(parser ParserConfig, forms ...models.FormDefinition) (*Catalog, error) {
	c := &Catalog{Version: "1.0", Parser: parser, Forms: forms}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate performs strict validation and applies defaults. It must succeed
// before FindForm is used.
func (c *Catalog) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if err := c.validateParser(); err != nil {
		return err
	}

	if len(c.Forms) == 0 {
		return fmt.Errorf("no forms defined")
	}

	c.byPrefix = make(map[string]*models.FormDefinition, len(c.Forms))
	ids := make(map[string]bool, len(c.Forms))
	for i := range c.Forms {
		form := &c.Forms[i]
		if err := validateForm(form); err != nil {
			return err
		}

		if ids[form.ID] {
			return invalidf(form.ID, "duplicate form id")
		}
		ids[form.ID] = true

		prefix := strings.ToUpper(form.Prefix)
		if other, exists := c.byPrefix[prefix]; exists {
			return invalidf(form.ID, "prefix %q already used by form %q", form.Prefix, other.ID)
		}
		c.byPrefix[prefix] = form

		if err := c.checkSubstitutions(form); err != nil {
			return err
		}
	}

	return nil
}

func (c *Catalog) validateParser() error {
	p := &c.Parser

	if p.MarkerKind == "" {
		p.MarkerKind = MarkerIncident
	}
	switch p.MarkerKind {
	case MarkerIncident, MarkerChecklist, MarkerNone:
	default:
		return fmt.Errorf("parser: invalid marker_kind: %s (must be 'incident', 'checklist', or 'none')", p.MarkerKind)
	}

	if len(p.LocationTypes) == 0 {
		return fmt.Errorf("parser: at least one location type is required")
	}
	for i, lt := range p.LocationTypes {
		if !isAlpha(lt) {
			return fmt.Errorf("parser: location type %q must be letters only", lt)
		}
		p.LocationTypes[i] = strings.ToUpper(lt)
	}

	for from, to := range p.Substitutions {
		if utf8.RuneCountInString(from) != 1 || utf8.RuneCountInString(to) != 1 {
			return fmt.Errorf("parser: substitution %q -> %q must map one character to one character", from, to)
		}
		// Digits carry observer ids, days, location codes and values.
		if r, _ := utf8.DecodeRuneInString(from); unicode.IsDigit(r) {
			return fmt.Errorf("parser: substitution %q -> %q rewrites a digit", from, to)
		}
	}

	return nil
}

// checkSubstitutions rejects confusion tables that would rewrite characters
// the envelope or a tag depends on, since such codes could never match.
func (c *Catalog) checkSubstitutions(form *models.FormDefinition) error {
	table := c.Parser.SubstitutionTable()
	if len(table) == 0 {
		return nil
	}

	literals := append([]string{form.Prefix}, c.Parser.LocationTypes...)
	for _, f := range form.Fields() {
		literals = append(literals, f.Tag)
	}
	for _, lit := range literals {
		for _, r := range strings.ToUpper(lit) {
			if _, ok := table[r]; ok {
				return invalidf(form.ID, "code %q contains %q which the substitution table rewrites", lit, string(r))
			}
		}
	}
	return nil
}

func validateForm(form *models.FormDefinition) error {
	if form.ID == "" {
		return fmt.Errorf("%w: form id is required", ErrInvalidCatalog)
	}
	if !isAlpha(form.Prefix) {
		return invalidf(form.ID, "prefix %q must be letters only", form.Prefix)
	}

	switch form.Kind {
	case models.FormKindChecklist, models.FormKindIncident:
	default:
		return invalidf(form.ID, "invalid kind: %q (must be 'checklist' or 'incident')", form.Kind)
	}

	if form.CommentMode == "" {
		form.CommentMode = models.CommentModeNote
	}
	switch form.CommentMode {
	case models.CommentModeNote:
	case models.CommentModeField:
		if form.CommentField == "" {
			form.CommentField = models.DefaultCommentField
		}
		form.CommentField = strings.ToUpper(form.CommentField)
	default:
		return invalidf(form.ID, "invalid comment_mode: %q (must be 'note' or 'field')", form.CommentMode)
	}

	for _, a := range form.Activities {
		if !a.Start.Valid() || !a.End.Valid() || !a.Start.Before(a.End) {
			return invalidf(form.ID, "activity %q must have start before end", a.Name)
		}
	}

	seen := make(map[string]bool)
	for _, field := range form.Fields() {
		if err := validateField(form.ID, field); err != nil {
			return err
		}
		tag := field.CanonicalTag()
		if seen[tag] {
			return &ValidationError{Kind: ErrDuplicateTag, Form: form.ID, Msg: fmt.Sprintf("tag %q", tag)}
		}
		seen[tag] = true
	}
	if _, clash := form.Field(form.CommentField); clash && form.CommentMode == models.CommentModeField {
		return &ValidationError{Kind: ErrDuplicateTag, Form: form.ID, Msg: fmt.Sprintf("comment field %q collides with a field tag", form.CommentField)}
	}

	return nil
}

func validateField(formID string, f models.FieldSpec) error {
	// Tags are letters only so a tag never swallows the digits of its value.
	if !isAlpha(f.Tag) {
		return invalidf(formID, "tag %q must be letters only", f.Tag)
	}

	switch f.Kind {
	case models.KindBoolean, models.KindMultiNumeric:
	case models.KindNumeric:
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return invalidf(formID, "field %s: min %d is greater than max %d", f.Tag, *f.Min, *f.Max)
		}
		if f.Min != nil && *f.Min < 0 {
			return invalidf(formID, "field %s: min must be >= 0", f.Tag)
		}
	case models.KindChoice:
		if len(f.Options) == 0 {
			return invalidf(formID, "field %s: choice fields need at least one option", f.Tag)
		}
	default:
		return invalidf(formID, "field %s: invalid kind %q", f.Tag, f.Kind)
	}

	for _, opt := range f.Options {
		if opt < 0 {
			return invalidf(formID, "field %s: options must be >= 0", f.Tag)
		}
		if f.AllowsMultiple() && opt > 9 {
			return invalidf(formID, "field %s: multi-numeric options are single digits", f.Tag)
		}
	}

	return nil
}

// FindForm returns the form with the given prefix, case-insensitively.
func (c *Catalog) FindForm(prefix string) (*models.FormDefinition, error) {
	form, ok := c.byPrefix[strings.ToUpper(prefix)]
	if !ok {
		return nil, fmt.Errorf("%w: prefix %q", ErrFormNotFound, prefix)
	}
	return form, nil
}

// Prefixes returns every known form prefix in uppercase, sorted.
func (c *Catalog) Prefixes() []string {
	prefixes := make([]string, 0, len(c.byPrefix))
	for p := range c.byPrefix {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	return prefixes
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
