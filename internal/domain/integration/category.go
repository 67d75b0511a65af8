package integration

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CategoryPathSeparator joins the names along a category path
const CategoryPathSeparator = " / "

// PermissionAvailable is the permission status given to mirrored categories
const PermissionAvailable = "AVAILABLE"

// CategoryNode is one node of the local mirror of a marketplace category tree
type CategoryNode struct {
	ID          uuid.UUID
	Marketplace MarketplaceCode
	// CategoryID is the marketplace category id
	CategoryID string
	// Name is the bare category name
	Name string
	// DisplayName is the path qualified name, unique per marketplace
	DisplayName string
	// ParentDisplayName is empty only for the synthetic root
	ParentDisplayName string
	IsLeaf            bool
	IsGroup           bool
	PermissionStatus  string
	// IsDefault flags the marketplace default category used by resolution
	IsDefault bool
	CreatedAt time.Time
}

// IsRoot returns true for the synthetic root node
func (n *CategoryNode) IsRoot() bool {
	return n.ParentDisplayName == ""
}

// CategoryMirror is the result of flattening a remote category tree
type CategoryMirror struct {
	Root  CategoryNode
	Nodes []CategoryNode
	// Skipped lists display names dropped as duplicates
	Skipped []string
}

// All returns the root followed by every mirrored node
func (m *CategoryMirror) All() []CategoryNode {
	out := make([]CategoryNode, 0, len(m.Nodes)+1)
	out = append(out, m.Root)
	return append(out, m.Nodes...)
}

// RootCategoryID returns the id of the synthetic root for a marketplace
func RootCategoryID(marketplace MarketplaceCode) string {
	return strings.ToLower(strings.ReplaceAll(string(marketplace), " ", "_")) + "_root"
}

// RootDisplayName returns the display name of the synthetic root
func RootDisplayName(marketplace MarketplaceCode) string {
	return string(marketplace) + " Root"
}

type categoryQueueEntry struct {
	children      []RemoteCategory
	parentDisplay string
}

// BuildCategoryMirror flattens a nested category tree breadth first under a
// single synthetic root. A category seen earlier in the walk, either by display
// name or by category id, is skipped: the first occurrence wins.
func BuildCategoryMirror(marketplace MarketplaceCode, tree []RemoteCategory) CategoryMirror {
	now := time.Now()
	root := CategoryNode{
		ID:               uuid.New(),
		Marketplace:      marketplace,
		CategoryID:       RootCategoryID(marketplace),
		Name:             RootDisplayName(marketplace),
		DisplayName:      RootDisplayName(marketplace),
		IsLeaf:           false,
		IsGroup:          true,
		PermissionStatus: PermissionAvailable,
		CreatedAt:        now,
	}

	mirror := CategoryMirror{Root: root, Nodes: make([]CategoryNode, 0)}
	seenNames := map[string]struct{}{root.DisplayName: {}}
	seenIDs := make(map[string]struct{})

	queue := []categoryQueueEntry{{children: tree, parentDisplay: root.DisplayName}}
	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		for _, remote := range entry.children {
			displayName := entry.parentDisplay + CategoryPathSeparator + remote.Name
			if _, dup := seenNames[displayName]; dup {
				mirror.Skipped = append(mirror.Skipped, displayName)
				continue
			}
			if remote.CategoryID != "" {
				if _, dup := seenIDs[remote.CategoryID]; dup {
					mirror.Skipped = append(mirror.Skipped, displayName)
					continue
				}
				seenIDs[remote.CategoryID] = struct{}{}
			}
			seenNames[displayName] = struct{}{}

			isLeaf := remote.Leaf && len(remote.Children) == 0
			mirror.Nodes = append(mirror.Nodes, CategoryNode{
				ID:                uuid.New(),
				Marketplace:       marketplace,
				CategoryID:        remote.CategoryID,
				Name:              remote.Name,
				DisplayName:       displayName,
				ParentDisplayName: entry.parentDisplay,
				IsLeaf:            isLeaf,
				IsGroup:           !isLeaf,
				PermissionStatus:  PermissionAvailable,
				CreatedAt:         now,
			})

			if len(remote.Children) > 0 {
				queue = append(queue, categoryQueueEntry{children: remote.Children, parentDisplay: displayName})
			}
		}
	}

	return mirror
}

// ItemGroupCategoryMapping is an explicit item group to marketplace category record
type ItemGroupCategoryMapping struct {
	ID          uuid.UUID
	ItemGroup   string
	Marketplace MarketplaceCode
	// CategoryDisplayName points at a CategoryNode of the mirror
	CategoryDisplayName string
}

// CategoryRepository persists the category mirror
type CategoryRepository interface {
	// ReplaceMirror deletes every node of the marketplace and inserts nodes atomically
	ReplaceMirror(ctx context.Context, marketplace MarketplaceCode, nodes []CategoryNode) error
	FindByMarketplace(ctx context.Context, marketplace MarketplaceCode) ([]CategoryNode, error)
	FindByDisplayName(ctx context.Context, marketplace MarketplaceCode, displayName string) (*CategoryNode, error)
	FindDefault(ctx context.Context, marketplace MarketplaceCode) (*CategoryNode, error)
}

// ItemGroupCategoryRepository reads explicit item group mappings
type ItemGroupCategoryRepository interface {
	FindMapping(ctx context.Context, itemGroup string, marketplace MarketplaceCode) (*ItemGroupCategoryMapping, error)
}
