package sections

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

// DeriveLayoutType picks the stored layout: a recognised hint wins, then an
// "N column(s)" UI label, then the column count.
func DeriveLayoutType(hint, uiLabel string, columns int) domain.LayoutType {
	if layout, ok := domain.ParseLayoutType(hint); ok {
		return layout
	}
	switch strings.ToLower(strings.TrimSpace(uiLabel)) {
	case "1 column":
		return domain.LayoutOneColumn
	case "2 columns":
		return domain.LayoutTwoColumns
	case "3 columns":
		return domain.LayoutThreeColumns
	case "4 columns":
		return domain.LayoutFourColumns
	}
	switch {
	case columns >= 4:
		return domain.LayoutFourColumns
	case columns == 3:
		return domain.LayoutThreeColumns
	case columns == 2:
		return domain.LayoutTwoColumns
	}
	return domain.LayoutOneColumn
}

// UIType maps a stored layout back to the editor label.
func UIType(layout domain.LayoutType, columns int) string {
	switch layout {
	case domain.LayoutOneColumn:
		return ColumnsLabel(1)
	case domain.LayoutTwoColumns:
		return ColumnsLabel(2)
	case domain.LayoutGallery:
		if columns == 3 {
			return ColumnsLabel(3)
		}
		return ColumnsLabel(4)
	}
	switch {
	case columns <= 1:
		return ColumnsLabel(1)
	case columns >= 4:
		return ColumnsLabel(4)
	}
	return ColumnsLabel(columns)
}

// ColumnsLabel renders "1 column", "2 columns" and so on.
func ColumnsLabel(n int) string {
	if n == 1 {
		return "1 column"
	}
	return strconv.Itoa(n) + " columns"
}
