package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/reliktarte/catalog-service/extract"
	"github.com/reliktarte/catalog-service/models"
	"github.com/reliktarte/catalog-service/walker"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Options configure a Synchronizer.
type Options struct {
	// Root is the catalog directory holding one folder per category.
	Root string
	// URLPrefix starts every stored photo path, e.g. /static/catalog.
	URLPrefix string
	SKUSource SKUSource
}

// Synchronizer imports a catalog tree into the store.
type Synchronizer struct {
	store     Store
	walker    *walker.Walker
	extractor *extract.Extractor
	seeder    *Seeder
	opts      Options
	logger    *zap.Logger
}

func NewSynchronizer(store Store, w *walker.Walker, extractor *extract.Extractor, opts Options, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if w == nil {
		w = walker.New()
	}
	if extractor == nil {
		extractor = extract.New(extract.DefaultReaders(), extract.UkrainianVocabulary(), extract.DefaultPolicy())
	}
	return &Synchronizer{
		store:     store,
		walker:    w,
		extractor: extractor,
		seeder:    NewSeeder(),
		opts:      opts,
		logger:    logger,
	}
}

// Sync runs an upsert import. Each category is committed on its own and
// each entry runs in a savepoint: a failing entry is rolled back, counted
// as Failed and the run goes on. The returned error is set only when a
// category as a whole could not be processed; categories committed before
// it stay committed.
func (s *Synchronizer) Sync(ctx context.Context, plans []CategoryPlan, progress Progress) (*Report, error) {
	if progress == nil {
		progress = Discard
	}
	report := NewReport(ModeUpsert)
	defer report.finish()

	for _, plan := range plans {
		progress.Step(fmt.Sprintf("Синхронізація: %s", plan.Name))
		var stats Stats
		err := s.store.Transaction(ctx, func(tx Store) error {
			stats = Stats{}
			return s.syncCategory(ctx, tx, plan, &stats, progress, ModeUpsert)
		})
		if err != nil {
			report.Category(plan.Name)
			progress.Detail(fmt.Sprintf("↩️ %s: зміни категорії скасовано: %v", plan.Code, err))
			return report, fmt.Errorf("sync category %s: %w", plan.Code, err)
		}
		*report.Category(plan.Name) = stats
	}
	progress.Step("Синхронізацію завершено")
	return report, nil
}

// Reset empties the products table and imports every category inside one
// transaction. Any failure rolls the whole run back, the previous catalog
// included, and no report is returned.
func (s *Synchronizer) Reset(ctx context.Context, plans []CategoryPlan, progress Progress) (*Report, error) {
	if progress == nil {
		progress = Discard
	}
	var report *Report
	err := s.store.Transaction(ctx, func(tx Store) error {
		report = NewReport(ModeReset)

		progress.Step("Очищення бази")
		deleted, err := tx.CountProducts(ctx)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		if err := tx.TruncateProducts(ctx); err != nil {
			return fmt.Errorf("truncate products: %w", err)
		}
		report.Deleted = deleted
		progress.Detail(fmt.Sprintf("🗑 Видалено записів: %d", deleted))

		for _, plan := range plans {
			progress.Step(fmt.Sprintf("Імпорт: %s", plan.Name))
			stats := report.Category(plan.Name)
			if err := s.syncCategory(ctx, tx, plan, stats, progress, ModeReset); err != nil {
				return fmt.Errorf("import category %s: %w", plan.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("catalog reset rolled back", zap.Error(err))
		return nil, err
	}
	report.finish()
	progress.Step("Імпорт завершено")
	return report, nil
}

type references struct {
	category *models.Category
	size     *models.ProductSize
	color    *models.ProductColor
}

func (s *Synchronizer) syncCategory(ctx context.Context, tx Store, plan CategoryPlan, stats *Stats, progress Progress, mode Mode) error {
	category, err := s.seeder.EnsureCategory(ctx, tx, plan)
	if err != nil {
		return err
	}
	size, color, err := s.seeder.EnsureDefaults(ctx, tx)
	if err != nil {
		return err
	}
	refs := references{category: category, size: size, color: color}

	root := filepath.Join(s.opts.Root, plan.Code)
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("category folder not found", zap.String("category", plan.Code), zap.String("path", root))
			progress.Detail(fmt.Sprintf("⚠️ Папку %s не знайдено", root))
			return nil
		}
		return fmt.Errorf("stat category folder: %w", err)
	}

	for entry, err := range s.walker.Entries(ctx, root, plan.Layout) {
		var entryErr *walker.EntryError
		if err != nil && mode == ModeUpsert && errors.As(err, &entryErr) {
			stats.Failed++
			s.logger.Warn("catalog directory unreadable",
				zap.String("category", plan.Code),
				zap.String("entry", entryErr.RelDir),
				zap.Error(entryErr.Err))
			progress.Detail(fmt.Sprintf("❌ %s/%s: %v", plan.Code, entryErr.RelDir, entryErr.Err))
			continue
		}
		if err != nil {
			return err
		}
		stats.Folders++

		if mode == ModeReset {
			res, err := s.syncEntry(ctx, tx, plan, refs, entry)
			if err != nil {
				return fmt.Errorf("entry %s: %w", entry.RelDir, err)
			}
			s.record(stats, progress, plan, entry, res)
			continue
		}

		var res entryResult
		err := tx.Transaction(ctx, func(etx Store) error {
			var err error
			res, err = s.syncEntry(ctx, etx, plan, refs, entry)
			return err
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			stats.Failed++
			s.logger.Warn("catalog entry failed",
				zap.String("category", plan.Code),
				zap.String("entry", entry.RelDir),
				zap.Error(err))
			progress.Detail(fmt.Sprintf("❌ %s/%s: %v", plan.Code, entry.RelDir, err))
			continue
		}
		s.record(stats, progress, plan, entry, res)
	}
	return nil
}

type entryResult struct {
	sku         string
	skipped     bool
	created     bool
	document    bool
	photosAdded int
	lines       int
}

func (s *Synchronizer) record(stats *Stats, progress Progress, plan CategoryPlan, entry walker.Entry, res entryResult) {
	if res.document {
		stats.Documents++
	}
	switch {
	case res.skipped:
		stats.Skipped++
		progress.Detail(fmt.Sprintf("⚠️ %s/%s пропущено: немає артикула", plan.Code, entry.RelDir))
	case res.created:
		stats.Added++
		stats.PhotosAdded += res.photosAdded
		progress.Detail(fmt.Sprintf("➕ %s | %d фото | %d рядків", res.sku, res.photosAdded, res.lines))
	default:
		stats.Updated++
		stats.PhotosAdded += res.photosAdded
		progress.Detail(fmt.Sprintf("🔄 %s | +%d фото", res.sku, res.photosAdded))
	}
}

func (s *Synchronizer) syncEntry(ctx context.Context, tx Store, plan CategoryPlan, refs references, entry walker.Entry) (entryResult, error) {
	desc := s.extractor.Extract(entry.DescriptionPath)
	res := entryResult{
		document: entry.DescriptionPath != "" && desc.Parsed(),
		lines:    len(desc.Details),
	}

	res.sku = s.sku(plan, entry, desc)
	if res.sku == "" {
		res.skipped = true
		return res, nil
	}

	product, err := tx.FindProductBySKU(ctx, res.sku)
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		product = newProduct(res.sku, refs.category, entry, desc)
		if err := tx.CreateProduct(ctx, product); err != nil {
			return res, fmt.Errorf("create product %s: %w", res.sku, err)
		}
		res.created = true
	case err != nil:
		return res, fmt.Errorf("find product %s: %w", res.sku, err)
	default:
		applyDescription(product, entry, desc)
		if err := tx.UpdateProduct(ctx, product); err != nil {
			return res, fmt.Errorf("update product %s: %w", res.sku, err)
		}
	}

	added, err := s.syncPhotos(ctx, tx, plan, refs, entry, product.ID, desc)
	if err != nil {
		return res, err
	}
	res.photosAdded = added
	return res, nil
}

// syncPhotos inserts the entry's photos that the product does not have
// yet. The first inserted photo becomes main only when no existing photo
// is main, so the main flag is assigned once and then left alone.
func (s *Synchronizer) syncPhotos(ctx context.Context, tx Store, plan CategoryPlan, refs references, entry walker.Entry, productID uint, desc extract.Description) (int, error) {
	existing, err := tx.ListPhotos(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("list photos: %w", err)
	}
	known := make(map[string]bool, len(existing))
	hasMain := false
	for _, p := range existing {
		known[p.Photo] = true
		hasMain = hasMain || p.IsMain
	}

	added := 0
	for _, name := range entry.PhotoNames() {
		web := s.WebPath(plan, entry, name)
		if known[web] {
			continue
		}
		photo := &models.ProductPhoto{
			ProductID:  productID,
			Photo:      web,
			IsMain:     !hasMain,
			Dependency: models.PhotoDependsOnColor,
			ColorID:    refs.color.ID,
			SizeID:     refs.size.ID,
			WithGlass:  desc.GlassLabel,
		}
		if err := tx.CreatePhoto(ctx, photo); err != nil {
			return added, fmt.Errorf("create photo %s: %w", web, err)
		}
		known[web] = true
		hasMain = true
		added++
	}
	return added, nil
}

// WebPath is the stored path of a photo:
// {URLPrefix}/{category}/{class?}/{product}/{file}.
func (s *Synchronizer) WebPath(plan CategoryPlan, entry walker.Entry, file string) string {
	prefix := s.opts.URLPrefix
	if prefix == "" {
		prefix = "/"
	}
	return path.Join(prefix, plan.Code, entry.RelDir, file)
}

func (s *Synchronizer) sku(plan CategoryPlan, entry walker.Entry, desc extract.Description) string {
	switch s.opts.SKUSource {
	case SKUFromPath:
		return pathSKU(plan, entry)
	case SKUFromDocumentOrPath:
		if desc.HasUsableSKU() {
			return desc.SKU
		}
		return pathSKU(plan, entry)
	default:
		if desc.HasUsableSKU() {
			return desc.SKU
		}
		return ""
	}
}

// pathSKU builds PREFIX-CLASS-PRODUCT for nested categories and
// PREFIX-PRODUCT for flat ones.
func pathSKU(plan CategoryPlan, entry walker.Entry) string {
	parts := []string{plan.skuPrefix()}
	if plan.Layout == walker.Nested && entry.ClassName != "" {
		parts = append(parts, entry.ClassName)
	}
	parts = append(parts, entry.ProductKey)
	joined := strings.ToUpper(strings.Join(parts, "-"))
	return strings.Join(strings.Fields(joined), "-")
}

func productName(entry walker.Entry) string {
	return strings.TrimSpace(entry.ClassName + " " + entry.ProductKey)
}

func newProduct(sku string, category *models.Category, entry walker.Entry, desc extract.Description) *models.Product {
	product := &models.Product{
		SKU:            sku,
		CategoryID:     category.ID,
		Price:          category.DefaultPrice,
		MaterialChoice: category.HaveMaterialChoice,
	}
	applyDescription(product, entry, desc)
	return product
}

// applyDescription overwrites the fields an import owns.
func applyDescription(product *models.Product, entry walker.Entry, desc extract.Description) {
	product.Name = productName(entry)
	product.Description = datatypes.NewJSONType(descriptionDocument(desc))
	product.HaveGlass = desc.HasGlass
	product.OrientationChoice = desc.HasOrientation
}

func descriptionDocument(desc extract.Description) models.Description {
	doc := models.Description{
		Text:    desc.Summary,
		Details: make([]models.DetailLine, 0, len(desc.Details)),
	}
	for _, line := range desc.Details {
		doc.Details = append(doc.Details, models.DetailLine{Value: line})
	}
	if desc.Covering != nil {
		doc.Finishing = &models.Finishing{
			Covering: models.Covering{Text: *desc.Covering, Advantages: []string{}},
		}
	}
	return doc
}
