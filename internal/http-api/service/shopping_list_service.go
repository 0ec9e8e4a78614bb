package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
)

const ShoppingListContentType = "text/plain; charset=utf-8"

// Document is a rendered file ready to be served as an attachment.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

type ShoppingListService interface {
	Build(ctx context.Context, userID string) (*Document, error)
}

type shoppingListService struct {
	cart     repository.CartRepository
	filename string
	header   string
	log      *slog.Logger
}

func NewShoppingListService(cart repository.CartRepository, filename, header string, log *slog.Logger) ShoppingListService {
	return &shoppingListService{cart: cart, filename: filename, header: header, log: log}
}

func (s *shoppingListService) Build(ctx context.Context, userID string) (*Document, error) {
	lines, err := s.cart.ShoppingList(ctx, userID)
	if err != nil {
		return nil, err
	}
	body := RenderShoppingList(s.header, lines)
	s.log.Debug("shopping_list_built", "user_id", userID, "items", len(lines))
	return &Document{
		Filename:    s.filename,
		ContentType: ShoppingListContentType,
		Body:        body,
	}, nil
}

type lineKey struct {
	name string
	unit string
}

// RenderShoppingList merges lines with the same exact (name, unit), sums the
// amounts and writes them sorted byte-wise by name then unit:
//
//	<header>
//	<name> - <amount> <unit>.
//
// Every line, the header included, ends with a newline.
func RenderShoppingList(header string, lines []models.ShoppingListLine) []byte {
	totals := make(map[lineKey]int64, len(lines))
	for _, l := range lines {
		totals[lineKey{name: l.Name, unit: l.MeasurementUnit}] += l.Amount
	}

	keys := make([]lineKey, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b lineKey) int {
		if c := cmp.Compare(a.name, b.name); c != 0 {
			return c
		}
		return cmp.Compare(a.unit, b.unit)
	})

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, k := range keys {
		fmt.Fprintf(&b, "%s - %d %s.\n", k.name, totals[k], k.unit)
	}
	return []byte(b.String())
}
