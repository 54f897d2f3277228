package pricing

import (
	"strconv"
	"strings"

	"github.com/ariefcatur/go-cafe-orders.git/internal/catalog"
)

// Line pairs a catalog entry with chosen quantities. Duplicate lines for the
// same entry are allowed; the cart never merges them.
type Line struct {
	Item     catalog.Item `json:"item"`
	Qty      int          `json:"qty"`
	AddonQty int          `json:"addon_qty"`
}

// Amount coerces a textual price to an integer. Malformed values silently
// become 0 rather than an error; the legacy documents rely on that, so it
// stays (see DESIGN.md for the redesign note).
func Amount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// LineCost is qty * unit price, plus addon qty * addon price when the entry
// actually defines a priced add-on. Whole-unit prices only, no rounding.
func LineCost(l Line) int {
	cost := l.Qty * Amount(l.Item.Price)
	if l.Item.HasAddon() {
		cost += l.AddonQty * Amount(l.Item.AddonPrice)
	}
	return cost
}

// Total sums LineCost over the lines. Empty carts cost 0.
func Total(lines []Line) int {
	total := 0
	for _, l := range lines {
		total += LineCost(l)
	}
	return total
}
