package shopify

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain"
	"go.uber.org/zap"
)

// Metafield identifiers read by the transformer
const (
	metafieldNamespace     = "custom"
	metafieldCategory      = "category"
	metafieldRating        = "rating"
	metafieldReviewCount   = "review_count"
	metafieldFeatures      = "features"
	metafieldSpecification = "specifications"
)

var (
	defaultFeatures = []string{"Premium Quality", "Ships Worldwide", "Customer Favorite"}

	systemTagMarkers = []string{"gid://", "__", "admin"}

	whitespaceRun = regexp.MustCompile(`\s+`)
)

func defaultSpecifications() map[string]string {
	return map[string]string{"Material": "High Quality", "Origin": "Imported"}
}

// Transformer converts Storefront product records into the internal product model
type Transformer struct {
	random func() float64
	logger *zap.Logger
}

// NewTransformer creates a transformer that logs degraded fields through logger
func NewTransformer(logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{
		random: rand.Float64,
		logger: logger.Named("transformer"),
	}
}

// WithRandom replaces the source of the rating and review count fallbacks.
// random must return values in [0, 1).
func (t *Transformer) WithRandom(random func() float64) *Transformer {
	t.random = random
	return t
}

// Transform converts one record. Malformed fields degrade to fallbacks;
// only a record without id and handle is rejected.
func (t *Transformer) Transform(record *domain.ShopifyProduct) (domain.Product, error) {
	if record == nil {
		return domain.Product{}, fmt.Errorf("%w: nil record", domain.ErrInvalidRecord)
	}

	baseID := lastSegment(record.ID)
	if baseID == "" {
		baseID = record.Handle
	}
	if baseID == "" {
		return domain.Product{}, fmt.Errorf("%w: missing id and handle", domain.ErrInvalidRecord)
	}

	log := t.logger.With(zap.String("product_id", baseID))
	metafields := indexMetafields(record.Metafields)

	price, originalPrice := t.prices(record, log)
	variants := t.variants(record.Variants.Nodes(), baseID, log)

	inStock := record.TotalInventory > 0
	if len(variants) > 0 {
		inStock = false
		for _, v := range variants {
			if v.InStock {
				inStock = true
				break
			}
		}
	}

	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}

	return domain.Product{
		ID:             baseID,
		Name:           record.Title,
		Description:    record.Description,
		Price:          price,
		OriginalPrice:  originalPrice,
		Images:         extractImages(record),
		Category:       resolveCategory(record, metafields[metafieldCategory]),
		Tags:           tags,
		InStock:        inStock,
		Rating:         clamp(t.rating(metafields[metafieldRating], log), 1, 5),
		ReviewCount:    max(1, t.reviewCount(metafields[metafieldReviewCount], log)),
		Features:       features(metafields[metafieldFeatures], log),
		Variants:       variants,
		Specifications: specifications(metafields[metafieldSpecification], log),
		Handle:         record.Handle,
		CurrencyCode:   record.PriceRange.MinVariantPrice.CurrencyCode,
	}, nil
}

// TransformAll converts records independently; a failing record is logged and skipped
func (t *Transformer) TransformAll(records []domain.ShopifyProduct) []domain.Product {
	products := make([]domain.Product, 0, len(records))
	for i := range records {
		product, err := t.safeTransform(&records[i])
		if err != nil {
			t.logger.Warn("skipping product record",
				zap.String("id", records[i].ID),
				zap.String("handle", records[i].Handle),
				zap.Error(err))
			continue
		}
		products = append(products, product)
	}
	return products
}

func (t *Transformer) safeTransform(record *domain.ShopifyProduct) (product domain.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrInvalidRecord, r)
		}
	}()
	return t.Transform(record)
}

// indexMetafields maps the keys of the custom namespace to their values; null entries are skipped
func indexMetafields(metafields []*domain.ShopifyMetafield) map[string]string {
	index := make(map[string]string, len(metafields))
	for _, m := range metafields {
		if m == nil || m.Namespace != metafieldNamespace || m.Value == "" {
			continue
		}
		if _, seen := index[m.Key]; !seen {
			index[m.Key] = m.Value
		}
	}
	return index
}

// lastSegment returns the part of a global id after its final slash
func lastSegment(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

func resolveCategory(record *domain.ShopifyProduct, fromMetafield string) string {
	if c := strings.TrimSpace(fromMetafield); c != "" {
		return c
	}

	if record.Collections != nil && len(record.Collections.Edges) > 0 {
		if c := strings.TrimSpace(record.Collections.Edges[0].Node.Title); c != "" {
			return c
		}
	}

	for _, tag := range record.Tags {
		if strings.TrimSpace(tag) == "" || isSystemTag(tag) {
			continue
		}
		return strings.TrimSpace(tag)
	}

	return domain.UncategorizedLabel
}

func isSystemTag(tag string) bool {
	for _, marker := range systemTagMarkers {
		if strings.Contains(tag, marker) {
			return true
		}
	}
	return false
}

func (t *Transformer) prices(record *domain.ShopifyProduct, log *zap.Logger) (decimal.Decimal, *decimal.Decimal) {
	price := parseMoney(record.PriceRange.MinVariantPrice.Amount, "price", log)

	if record.CompareAtPriceRange == nil || record.CompareAtPriceRange.MinVariantPrice == nil {
		return price, nil
	}
	amount := record.CompareAtPriceRange.MinVariantPrice.Amount
	if amount == "" {
		return price, nil
	}
	compareAt, err := decimal.NewFromString(amount)
	if err != nil {
		log.Warn("malformed compare-at price", zap.String("amount", amount), zap.Error(err))
		return price, nil
	}
	if compareAt.GreaterThan(price) {
		return price, &compareAt
	}
	return price, nil
}

func parseMoney(amount, field string, log *zap.Logger) decimal.Decimal {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		log.Warn("malformed amount, using 0", zap.String("field", field), zap.String("amount", amount))
		return decimal.Zero
	}
	return d
}

func (t *Transformer) variants(nodes []domain.ShopifyVariant, baseID string, log *zap.Logger) []domain.Variant {
	variants := make([]domain.Variant, 0, len(nodes))
	for _, node := range nodes {
		v := domain.Variant{
			ID:      lastSegment(node.ID),
			Name:    node.Title,
			Price:   parseMoney(node.Price.Amount, "variant price", log),
			InStock: node.AvailableForSale,
		}
		if v.ID == "" {
			v.ID = whitespaceRun.ReplaceAllString(baseID+"-"+node.Title, "-")
		}
		for _, opt := range node.SelectedOptions {
			name := strings.ToLower(opt.Name)
			if v.Size == "" && strings.Contains(name, "size") {
				v.Size = opt.Value
			}
			if v.Color == "" && strings.Contains(name, "color") {
				v.Color = opt.Value
			}
		}
		if node.CompareAtPrice != nil && node.CompareAtPrice.Amount != "" {
			if d, err := decimal.NewFromString(node.CompareAtPrice.Amount); err == nil {
				v.OriginalPrice = &d
			}
		}
		variants = append(variants, v)
	}

	if !domain.HasMeaningfulVariants(variants) {
		return nil
	}
	return variants
}

func extractImages(record *domain.ShopifyProduct) []string {
	images := make([]string, 0, len(record.Images.Edges)+1)
	seen := make(map[string]struct{})
	add := func(url string) {
		if url == "" {
			return
		}
		if _, ok := seen[url]; ok {
			return
		}
		seen[url] = struct{}{}
		images = append(images, url)
	}

	if record.FeaturedImage != nil {
		add(record.FeaturedImage.URL)
	}
	for _, img := range record.Images.Nodes() {
		add(img.URL)
	}
	return images
}

func (t *Transformer) rating(value string, log *zap.Logger) float64 {
	if value != "" {
		if r, ok := parseNumber(value); ok {
			return r
		}
		log.Warn("malformed rating metafield", zap.String("value", value))
	}
	return 4.0 + t.random()*1.5
}

func (t *Transformer) reviewCount(value string, log *zap.Logger) int {
	if value != "" {
		if n, ok := parseNumber(value); ok {
			return int(math.Floor(math.Max(0, math.Min(n, math.MaxInt32))))
		}
		log.Warn("malformed review_count metafield", zap.String("value", value))
	}
	return int(math.Floor(t.random()*200)) + 50
}

// parseNumber accepts a plain number or a rating object of the form {"value": "4.5"}
func parseNumber(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f, true
	}

	var wrapped struct {
		Value json.Number `json:"value"`
	}
	if err := json.Unmarshal([]byte(value), &wrapped); err == nil && wrapped.Value != "" {
		if f, err := wrapped.Value.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

func features(value string, log *zap.Logger) []string {
	if value == "" {
		return append([]string(nil), defaultFeatures...)
	}
	var list []string
	if err := json.Unmarshal([]byte(value), &list); err != nil || list == nil {
		log.Warn("malformed features metafield", zap.String("value", value))
		return append([]string(nil), defaultFeatures...)
	}
	return list
}

func specifications(value string, log *zap.Logger) map[string]string {
	if value == "" {
		return defaultSpecifications()
	}
	var specs map[string]string
	if err := json.Unmarshal([]byte(value), &specs); err != nil || specs == nil {
		log.Warn("malformed specifications metafield", zap.String("value", value))
		return defaultSpecifications()
	}
	return specs
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
