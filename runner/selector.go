package runner

import (
	"fmt"
	"strings"

	"github.com/geo-infra/geo-acceptor/types"
)

// RemainingSelector computes the pytest -k expression for a catch-all
// category: the negation of every explicit selector, ANDed together, so
// the catch-all claims exactly the tests no other category selected.
func RemainingSelector(categories []types.Category) string {
	negated := make([]string, 0, len(categories))
	for _, cat := range categories {
		if cat.Selector != "" {
			negated = append(negated, fmt.Sprintf("not %s", cat.Selector))
		}
	}
	return strings.Join(negated, " and ")
}
