package recipes

import (
	"context"
	"fmt"
	"strings"
)

// ShoppingList sums ingredient amounts over every recipe in the viewer's
// cart. Lines are ordered by ingredient name, then measurement unit.
func (s *Service) ShoppingList(ctx context.Context, viewer Viewer) ([]ShoppingListLine, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}

	totals, err := s.store.ShoppingListTotals(ctx, viewer.UserID)
	if err != nil {
		return nil, wrapServiceError(err, "shopping list", storageErrors{})
	}

	lines := make([]ShoppingListLine, 0, len(totals))
	for _, total := range totals {
		lines = append(lines, ShoppingListLine{
			Name:            total.Name,
			MeasurementUnit: total.MeasurementUnit,
			Amount:          total.Total,
		})
	}

	return lines, nil
}

// RenderShoppingList renders one "<name> (<unit>) — <sum>" line per entry.
func RenderShoppingList(lines []ShoppingListLine) string {
	var b strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&b, "%s (%s) — %d\n", line.Name, line.MeasurementUnit, line.Amount)
	}

	return b.String()
}
