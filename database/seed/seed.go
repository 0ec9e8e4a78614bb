// Package seed loads the tag and ingredient catalogue from JSON exports.
package seed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
)

var (
	ErrEmptyFile = errors.New("catalogue file is empty")

	slugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Catalogue is the content of an import file. A bare JSON array is read as
// a list of ingredients, which is the format of the usual ingredients.json.
type Catalogue struct {
	Tags        []models.Tag        `json:"tags"`
	Ingredients []models.Ingredient `json:"ingredients"`
}

type Result struct {
	TagsRead           int
	TagsCreated        int64
	IngredientsRead    int
	IngredientsCreated int64
}

func Read(r io.Reader) (*Catalogue, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, err
	}

	var cat Catalogue
	dec := json.NewDecoder(br)
	dec.DisallowUnknownFields()
	if first == '[' {
		err = dec.Decode(&cat.Ingredients)
	} else {
		err = dec.Decode(&cat)
	}
	if err != nil {
		return nil, fmt.Errorf("decode catalogue: %w", err)
	}
	if err := cat.validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return 0, ErrEmptyFile
		}
		if err != nil {
			return 0, fmt.Errorf("read catalogue: %w", err)
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func (c *Catalogue) validate() error {
	for i := range c.Tags {
		t := &c.Tags[i]
		t.ID = 0
		t.Name = strings.TrimSpace(t.Name)
		switch {
		case t.Name == "" || len(t.Name) > 200:
			return fmt.Errorf("tag %d: name must be 1-200 characters", i)
		case !slugPattern.MatchString(t.Slug) || len(t.Slug) > 200:
			return fmt.Errorf("tag %q: invalid slug %q", t.Name, t.Slug)
		case t.Color != "" && !colorPattern.MatchString(t.Color):
			return fmt.Errorf("tag %q: invalid color %q", t.Name, t.Color)
		}
	}
	for i := range c.Ingredients {
		ing := &c.Ingredients[i]
		ing.ID = 0
		ing.Name = strings.TrimSpace(ing.Name)
		ing.MeasurementUnit = strings.TrimSpace(ing.MeasurementUnit)
		if ing.Name == "" || len(ing.Name) > 128 {
			return fmt.Errorf("ingredient %d: name must be 1-128 characters", i)
		}
		if ing.MeasurementUnit == "" || len(ing.MeasurementUnit) > 64 {
			return fmt.Errorf("ingredient %q: measurement unit must be 1-64 characters", ing.Name)
		}
	}
	return nil
}

// Apply writes the catalogue. Rows that already exist are left untouched, so
// running the same import twice creates nothing the second time.
func Apply(ctx context.Context, tags repository.TagRepository, ingredients repository.IngredientRepository, cat *Catalogue) (Result, error) {
	res := Result{TagsRead: len(cat.Tags), IngredientsRead: len(cat.Ingredients)}

	var err error
	if res.TagsCreated, err = tags.Upsert(ctx, cat.Tags); err != nil {
		return res, err
	}
	if res.IngredientsCreated, err = ingredients.Import(ctx, cat.Ingredients); err != nil {
		return res, err
	}
	return res, nil
}
