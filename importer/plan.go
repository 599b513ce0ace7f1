package importer

import (
	"fmt"
	"strings"

	"github.com/reliktarte/catalog-service/walker"
	"github.com/shopspring/decimal"
)

// CategoryPlan describes one category directory under the catalog root
// and the category row it is imported into.
type CategoryPlan struct {
	// Code is both the folder name and the unique category code.
	Code   string
	Name   string
	Layout walker.Layout

	GlassAvailable    bool
	MaterialChoice    bool
	OrientationChoice bool
	PlatbandChoice    bool

	// DefaultPrice is given to newly created products. Zero means price on
	// request.
	DefaultPrice decimal.Decimal
	// SKUPrefix starts path-derived SKUs. Empty means the upper-cased Code.
	SKUPrefix string
}

func (p CategoryPlan) skuPrefix() string {
	if p.SKUPrefix != "" {
		return p.SKUPrefix
	}
	return strings.ToUpper(p.Code)
}

// DefaultPlans returns the storefront's two categories: doors grouped by
// class and flat mouldings.
func DefaultPlans() []CategoryPlan {
	return []CategoryPlan{
		{
			Code:              "door",
			Name:              "Двері",
			Layout:            walker.Nested,
			GlassAvailable:    true,
			MaterialChoice:    true,
			OrientationChoice: true,
		},
		{
			Code:           "mouldings",
			Name:           "Лиштви",
			Layout:         walker.Flat,
			PlatbandChoice: true,
		},
	}
}

// ParsePlans reads plans written as
//
//	code:Name:layout[:flag,flag...];code:Name:layout...
//
// Flags are glass, material, orientation, platband, price=N and prefix=X.
// An empty string yields DefaultPlans.
func ParsePlans(s string) ([]CategoryPlan, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPlans(), nil
	}

	var plans []CategoryPlan
	seen := make(map[string]bool)
	for _, item := range strings.Split(s, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fields := strings.SplitN(item, ":", 4)
		if len(fields) < 3 {
			return nil, fmt.Errorf("category plan %q: want code:name:layout", item)
		}
		layout, err := walker.ParseLayout(fields[2])
		if err != nil {
			return nil, fmt.Errorf("category plan %q: %w", item, err)
		}
		plan := CategoryPlan{
			Code:   strings.TrimSpace(fields[0]),
			Name:   strings.TrimSpace(fields[1]),
			Layout: layout,
		}
		if plan.Code == "" || plan.Name == "" {
			return nil, fmt.Errorf("category plan %q: code and name are required", item)
		}
		if seen[plan.Code] {
			return nil, fmt.Errorf("category plan %q: duplicate code", item)
		}
		seen[plan.Code] = true
		if len(fields) == 4 {
			if err := applyFlags(&plan, fields[3]); err != nil {
				return nil, fmt.Errorf("category plan %q: %w", item, err)
			}
		}
		plans = append(plans, plan)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("no category plans in %q", s)
	}
	return plans, nil
}

func applyFlags(plan *CategoryPlan, flags string) error {
	for _, flag := range strings.Split(flags, ",") {
		flag = strings.TrimSpace(flag)
		key, value, _ := strings.Cut(flag, "=")
		switch key {
		case "":
		case "glass":
			plan.GlassAvailable = true
		case "material":
			plan.MaterialChoice = true
		case "orientation":
			plan.OrientationChoice = true
		case "platband":
			plan.PlatbandChoice = true
		case "price":
			price, err := decimal.NewFromString(value)
			if err != nil {
				return fmt.Errorf("price %q: %w", value, err)
			}
			if price.IsNegative() {
				return fmt.Errorf("price %q is negative", value)
			}
			plan.DefaultPrice = price
		case "prefix":
			plan.SKUPrefix = value
		default:
			return fmt.Errorf("unknown flag %q", flag)
		}
	}
	return nil
}

// SKUSource selects where a product's SKU comes from.
type SKUSource int

const (
	// SKUFromDocument uses the description document. Entries without a
	// usable document SKU are skipped.
	SKUFromDocument SKUSource = iota
	// SKUFromPath derives the SKU from category, class and product names.
	SKUFromPath
	// SKUFromDocumentOrPath prefers the document and falls back to the path.
	SKUFromDocumentOrPath
)

func ParseSKUSource(s string) (SKUSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "document":
		return SKUFromDocument, nil
	case "path":
		return SKUFromPath, nil
	case "auto", "document_or_path":
		return SKUFromDocumentOrPath, nil
	}
	return 0, fmt.Errorf("unknown sku source %q", s)
}

func (s SKUSource) String() string {
	switch s {
	case SKUFromDocument:
		return "document"
	case SKUFromPath:
		return "path"
	case SKUFromDocumentOrPath:
		return "auto"
	}
	return fmt.Sprintf("SKUSource(%d)", int(s))
}
