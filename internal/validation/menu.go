package validation

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-pagebuilder/internal/menus"
)

// MaxMenuLabelLength bounds menu item labels.
const MaxMenuLabelLength = 120

// MenuTree requires every node to carry a label of at most
// MaxMenuLabelLength characters that no sibling repeats.
func MenuTree(nodes []menus.Node) error {
	errs := validation.Errors{}
	menuLevel(errs, "items", nodes)
	return errs.Filter()
}

func menuLevel(errs validation.Errors, prefix string, nodes []menus.Node) {
	seen := make(map[string]int, len(nodes))
	for i, node := range nodes {
		key := fmt.Sprintf("%s.%d", prefix, i)
		label := strings.TrimSpace(node.Label)
		if err := validation.Validate(label,
			validation.Required,
			validation.RuneLength(1, MaxMenuLabelLength),
		); err != nil {
			errs[key+".label"] = err
		} else if first, dup := seen[label]; dup {
			errs[key+".label"] = validation.NewError("validation_label_duplicate",
				fmt.Sprintf("duplicates the label of sibling %d", first))
		} else {
			seen[label] = i
		}
		if len(node.Children) > 0 {
			menuLevel(errs, key+".children", node.Children)
		}
	}
}

// MenuItem checks a single item write: a bounded label and a non-negative
// position when one is given.
func MenuItem(req menus.ItemRequest) error {
	errs := validation.Errors{
		"label": validation.Validate(strings.TrimSpace(req.Label),
			validation.Required,
			validation.RuneLength(1, MaxMenuLabelLength),
		),
	}
	if req.Position != nil {
		errs["position"] = validation.Validate(*req.Position, validation.Min(0))
	}
	return errs.Filter()
}
