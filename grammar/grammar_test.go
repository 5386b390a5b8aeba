// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package grammar

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/fieldcode/models"
)

func testForm() *models.FormDefinition {
	return &models.FormDefinition{
		ID:     "pre-election",
		Prefix: "PB",
		Kind:   models.FormKindChecklist,
		Groups: []models.FieldGroup{{
			Name: "Arrival",
			Fields: []models.FieldSpec{
				{Tag: "A", Kind: models.KindBoolean},
				{Tag: "ab", Kind: models.KindNumeric},
				{Tag: "AC", Kind: models.KindMultiNumeric},
				{Tag: "AD", Kind: models.KindChoice, Options: []int{1, 2}},
			},
		}},
	}
}

func TestBuild_DuplicateTag(t *testing.T) {
	form := testForm()
	form.Groups = append(form.Groups, models.FieldGroup{
		Fields: []models.FieldSpec{{Tag: "AB", Kind: models.KindBoolean}},
	})

	_, err := Build(form)
	assert.ErrorIs(t, err, ErrDuplicateTag)
}

func TestMatchTags_LongestFirst(t *testing.T) {
	g, err := Build(testForm())
	require.NoError(t, err)

	tests := []struct {
		input string
		want  []string
	}{
		{"AB5", []string{"AB", "A"}},
		{"ab5", []string{"AB", "A"}},
		{"AC12", []string{"AC", "A"}},
		{"A", []string{"A"}},
		{"AX", []string{"A"}},
		{"B", nil},
		{"5AB", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got []string
			for _, f := range g.MatchTags(tt.input) {
				got = append(got, f.Tag)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldParse(t *testing.T) {
	g, err := Build(testForm())
	require.NoError(t, err)

	tests := []struct {
		tag     string
		token   string
		want    models.Value
		wantErr error
	}{
		{"A", "A", models.BoolValue(), nil},
		{"AB", "AB05", models.IntValue(5), nil},
		{"AB", "ab12", models.IntValue(12), nil},
		{"AB", "AB", models.Value{}, ErrMissingValue},
		{"AB", "AB99999999999999999999999", models.Value{}, ErrOutOfRange},
		{"AC", "AC121", models.IntsValue([]int{1, 2}), nil},
		{"AD", "AD2", models.Value{Kind: models.KindChoice, Int: 2}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			f, ok := g.Field(tt.tag)
			require.True(t, ok)

			got, err := f.Parse(tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCache_BuildsOncePerForm(t *testing.T) {
	c := NewCache()
	form := testForm()

	var wg sync.WaitGroup
	grammars := make([]*Grammar, 20)
	for i := range grammars {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := c.Get(form)
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			grammars[i] = g
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, c.Builds())
	for _, g := range grammars {
		assert.Same(t, grammars[0], g)
	}

	other := testForm()
	other.ID = "other"
	_, err := c.Get(other)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Builds())
}

func TestCache_DoesNotCacheFailures(t *testing.T) {
	c := NewCache()
	form := testForm()
	form.Groups[0].Fields = append(form.Groups[0].Fields, models.FieldSpec{Tag: "A", Kind: models.KindBoolean})

	_, err := c.Get(form)
	require.ErrorIs(t, err, ErrDuplicateTag)
	assert.Zero(t, c.Builds())
}
