package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/erp/marketplace/internal/domain/integration"
)

// CategorySyncResult summarizes a category mirror rebuild
type CategorySyncResult struct {
	Created int      `json:"created"`
	Skipped []string `json:"skipped"`
}

// CategoryService mirrors marketplace category trees and resolves the
// category an item is published under.
type CategoryService struct {
	tokens     *TokenManager
	gateway    integration.MarketplaceGateway
	categories integration.CategoryRepository
	mappings   integration.ItemGroupCategoryRepository
	items      integration.ItemRepository
	fallbackID string
	logger     *zap.Logger
}

// NewCategoryService creates a CategoryService. fallbackID is the last resort
// category id and may be empty.
func NewCategoryService(
	tokens *TokenManager,
	gateway integration.MarketplaceGateway,
	categories integration.CategoryRepository,
	mappings integration.ItemGroupCategoryRepository,
	items integration.ItemRepository,
	fallbackID string,
	logger *zap.Logger,
) *CategoryService {
	return &CategoryService{
		tokens:     tokens,
		gateway:    gateway,
		categories: categories,
		mappings:   mappings,
		items:      items,
		fallbackID: fallbackID,
		logger:     logger.Named("category_service"),
	}
}

// SyncCategoryTree replaces the local mirror with the shop's current tree
func (s *CategoryService) SyncCategoryTree(ctx context.Context, shop string) (*CategorySyncResult, error) {
	cred, err := s.tokens.ActiveCredentials(ctx, shop)
	if err != nil {
		return nil, err
	}
	tree, err := s.gateway.GetCategoryTree(ctx, cred)
	if err != nil {
		s.logger.Error("Failed to fetch category tree", zap.String("shop", shop), zap.Error(err))
		return nil, err
	}

	mirror := integration.BuildCategoryMirror(s.gateway.Marketplace(), tree)
	if err := s.categories.ReplaceMirror(ctx, s.gateway.Marketplace(), mirror.All()); err != nil {
		return nil, fmt.Errorf("replace category mirror: %w", err)
	}

	for _, name := range mirror.Skipped {
		s.logger.Warn("Skipped duplicate category", zap.String("display_name", name))
	}
	s.logger.Info("Category tree synced",
		zap.String("shop", shop),
		zap.Int("created", len(mirror.Nodes)),
		zap.Int("skipped", len(mirror.Skipped)),
	)
	skipped := mirror.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	return &CategorySyncResult{Created: len(mirror.Nodes), Skipped: skipped}, nil
}

// SuggestCategories asks the marketplace which categories fit a product name
func (s *CategoryService) SuggestCategories(ctx context.Context, shop, productName string) ([]integration.CategorySuggestion, error) {
	cred, err := s.tokens.ActiveCredentials(ctx, shop)
	if err != nil {
		return nil, err
	}
	return s.gateway.SuggestCategories(ctx, cred, productName)
}

// ResolveCategoryID finds the marketplace category for an item group, trying
// in order: an explicit mapping record, the category referenced on the item
// group, a fuzzy name match against leaf categories, the category flagged as
// default and finally the configured fallback id.
func (s *CategoryService) ResolveCategoryID(ctx context.Context, itemGroup string, marketplace integration.MarketplaceCode) (string, error) {
	log := s.logger.With(zap.String("item_group", itemGroup), zap.String("marketplace", string(marketplace)))

	if itemGroup != "" {
		if id, err := s.fromMapping(ctx, itemGroup, marketplace); err != nil || id != "" {
			return id, err
		}
		if id, err := s.fromItemGroup(ctx, itemGroup, marketplace); err != nil || id != "" {
			return id, err
		}
		if id, err := s.fuzzyMatch(ctx, itemGroup, marketplace); err != nil || id != "" {
			return id, err
		}
	}

	def, err := s.categories.FindDefault(ctx, marketplace)
	switch {
	case err == nil && def.CategoryID != "":
		log.Debug("Using default category", zap.String("category_id", def.CategoryID))
		return def.CategoryID, nil
	case err != nil && !errors.Is(err, integration.ErrCategoryNotFound):
		return "", err
	}

	if s.fallbackID != "" {
		log.Warn("Using fallback category", zap.String("category_id", s.fallbackID))
		return s.fallbackID, nil
	}
	return "", fmt.Errorf("%w: item group %q", integration.ErrCategoryNotFound, itemGroup)
}

func (s *CategoryService) fromMapping(ctx context.Context, itemGroup string, marketplace integration.MarketplaceCode) (string, error) {
	m, err := s.mappings.FindMapping(ctx, itemGroup, marketplace)
	if err != nil {
		if errors.Is(err, integration.ErrCategoryNotFound) {
			return "", nil
		}
		return "", err
	}
	return s.idOf(ctx, marketplace, m.CategoryDisplayName)
}

func (s *CategoryService) fromItemGroup(ctx context.Context, itemGroup string, marketplace integration.MarketplaceCode) (string, error) {
	group, err := s.items.FindItemGroup(ctx, itemGroup)
	if err != nil || group == nil {
		return "", err
	}
	ref := group.PlatformCategories[marketplace]
	if ref == "" {
		return "", nil
	}
	return s.idOf(ctx, marketplace, ref)
}

// idOf returns the category id of a mirrored node, or "" when the node is gone
func (s *CategoryService) idOf(ctx context.Context, marketplace integration.MarketplaceCode, displayName string) (string, error) {
	node, err := s.categories.FindByDisplayName(ctx, marketplace, displayName)
	if err != nil {
		if errors.Is(err, integration.ErrCategoryNotFound) {
			s.logger.Warn("Referenced category is not in the mirror", zap.String("display_name", displayName))
			return "", nil
		}
		return "", err
	}
	return node.CategoryID, nil
}

// fuzzyMatch compares normalized names of leaf categories: an exact match
// wins, otherwise the first leaf whose name contains the group name or is
// contained by it.
func (s *CategoryService) fuzzyMatch(ctx context.Context, itemGroup string, marketplace integration.MarketplaceCode) (string, error) {
	nodes, err := s.categories.FindByMarketplace(ctx, marketplace)
	if err != nil {
		return "", err
	}
	want := normalizeName(itemGroup)
	if want == "" {
		return "", nil
	}

	partial := ""
	for _, n := range nodes {
		if !n.IsLeaf || n.CategoryID == "" {
			continue
		}
		got := normalizeName(n.Name)
		if got == want {
			return n.CategoryID, nil
		}
		if partial == "" && got != "" && (strings.Contains(got, want) || strings.Contains(want, got)) {
			partial = n.CategoryID
		}
	}
	return partial, nil
}

// normalizeName strips diacritics, folds case and collapses whitespace
func normalizeName(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			switch r {
			case 'đ':
				return 'd'
			case 'Đ':
				return 'D'
			}
			return r
		}),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(out)), " ")
}
