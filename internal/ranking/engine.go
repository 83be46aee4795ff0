package ranking

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"smartquote/backend/internal/cache"
	"smartquote/backend/internal/domain"
)

// Mode selects the partition key and the requested-quantity aggregation.
// Item modes rank per requested line; category modes merge lines that share a
// normalized product name within a category and compare offers against the
// summed quantity.
type Mode string

const (
	ModeByItem         Mode = "item"
	ModeByItemArea     Mode = "item_area"
	ModeByCategory     Mode = "category"
	ModeByCategoryArea Mode = "category_area"
)

func ParseMode(raw string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeByItem:
		return ModeByItem, true
	case ModeByItemArea:
		return ModeByItemArea, true
	case ModeByCategory:
		return ModeByCategory, true
	case ModeByCategoryArea:
		return ModeByCategoryArea, true
	case "":
		return ModeByItemArea, true
	}
	return "", false
}

func (m Mode) partitionsByArea() bool {
	return m == ModeByItemArea || m == ModeByCategoryArea
}

func (m Mode) groupsByCategory() bool {
	return m == ModeByCategory || m == ModeByCategoryArea
}

// Policy selects the candidate ordering inside a partition. PolicyBucketed
// orders by the four-tier bucket first; PolicyPoints orders by totalPoint
// descending, which merges the middle two tiers.
type Policy string

const (
	PolicyBucketed Policy = "bucketed"
	PolicyPoints   Policy = "points"
)

func ParsePolicy(raw string) (Policy, bool) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case PolicyBucketed, "":
		return PolicyBucketed, true
	case PolicyPoints:
		return PolicyPoints, true
	}
	return "", false
}

// Normalize produces the key under which two free-text product names are the
// same product: lower-cased and trimmed, nothing fuzzier.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GroupKey is the stable identifier of a product group, used by reveal
// tracking as well as ranking output.
func GroupKey(categoryCode string, productName string) string {
	return categoryCode + "|" + Normalize(productName)
}

type Request struct {
	QuoteID   string
	Mode      Mode
	Policy    Policy
	TopN      int // 0 means unlimited
	Items     []domain.RequestedItem
	Responses []domain.SupplierResponse
}

type Engine struct {
	cache    cache.RankingCache
	cacheTTL time.Duration
}

func NewEngine(cacheStore cache.RankingCache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopRankingCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 20 * time.Second
	}
	return &Engine{cache: cacheStore, cacheTTL: cacheTTL}
}

// Rank computes the scored, ordered candidate list for every partition of the
// request. It is a pure derivation over the supplied snapshot; ranks are
// never stored. The empty response set yields an empty list. The returned
// slice is the caller's to mutate: candidates crossing the cache boundary are
// copied, so an in-process cache implementation never shares elements between
// callers.
func (e *Engine) Rank(ctx context.Context, req Request) []domain.RankedCandidate {
	cacheKey := buildCacheKey(req)
	if cached, ok, err := e.cache.Get(ctx, cacheKey); err == nil && ok {
		return cloneCandidates(cached)
	}

	result := Compute(req)
	_ = e.cache.Set(ctx, cacheKey, result, e.cacheTTL)
	return cloneCandidates(result)
}

func cloneCandidates(in []domain.RankedCandidate) []domain.RankedCandidate {
	out := make([]domain.RankedCandidate, len(in))
	copy(out, in)
	return out
}

// Compute is the uncached core. Exported so callers that already hold a
// snapshot (and tests) can rank without an Engine.
func Compute(req Request) []domain.RankedCandidate {
	responses := LatestPerSupplier(req.Responses)
	groups := buildGroups(req.Mode, req.Items)

	partitions := make(map[string][]domain.RankedCandidate)
	partitionOrder := make([]string, 0)

	attach := func(partKey string, cand domain.RankedCandidate) {
		if _, seen := partitions[partKey]; !seen {
			partitionOrder = append(partitionOrder, partKey)
		}
		partitions[partKey] = append(partitions[partKey], cand)
	}

	for _, resp := range responses {
		matched := matchingGroups(groups, resp)
		for _, g := range matched.groups {
			cand := domain.RankedCandidate{
				QuoteID:       req.QuoteID,
				AreaCode:      resp.AreaCode,
				CategoryCode:  g.categoryCode,
				GroupKey:      g.key,
				ItemID:        g.itemID,
				RequestedName: g.name,
				RequestedNote: g.note,
				Unit:          g.unit,
				RequestedQty:  g.qty,
				ResponseID:    resp.ID,
				SupplierID:    resp.SupplierID,
				OfferedName:   resp.ProductName,
				OfferedNote:   resp.Note,
				OfferedQty:    resp.Quantity,
				Price:         resp.Price,
				NameMatched:   matched.nameMatched,
				QtyMatched:    resp.Quantity == g.qty,
			}
			if cand.NameMatched && cand.QtyMatched {
				cand.QtyPoint = 1
			}
			cand.RankBucket = bucketOf(cand)

			partKey := g.key
			if req.Mode.partitionsByArea() {
				partKey = resp.AreaCode + "\x00" + g.key
			}
			attach(partKey, cand)
		}
	}

	sort.Strings(partitionOrder)

	out := make([]domain.RankedCandidate, 0, len(responses))
	for _, partKey := range partitionOrder {
		cands := partitions[partKey]
		scorePartition(cands)
		orderPartition(cands, req.Policy)
		for i := range cands {
			cands[i].RankNo = i + 1
		}
		if req.TopN > 0 && len(cands) > req.TopN {
			cands = cands[:req.TopN]
		}
		out = append(out, cands...)
	}
	return out
}

// group is one ranking target: a single requested line in item modes, or the
// merged lines sharing a normalized name within a category otherwise.
type group struct {
	key          string
	itemID       string
	categoryCode string
	normName     string
	name         string
	note         string
	unit         string
	qty          int
}

func buildGroups(mode Mode, items []domain.RequestedItem) []*group {
	sorted := make([]domain.RequestedItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	if !mode.groupsByCategory() {
		groups := make([]*group, 0, len(sorted))
		for _, item := range sorted {
			groups = append(groups, &group{
				key:          item.ID,
				itemID:       item.ID,
				categoryCode: item.CategoryCode,
				normName:     Normalize(item.ProductName),
				name:         item.ProductName,
				note:         item.Note,
				unit:         item.Unit,
				qty:          item.Quantity,
			})
		}
		return groups
	}

	byKey := make(map[string]*group)
	groups := make([]*group, 0, len(sorted))
	for _, item := range sorted {
		key := GroupKey(item.CategoryCode, item.ProductName)
		if existing, ok := byKey[key]; ok {
			existing.qty += item.Quantity
			continue
		}
		g := &group{
			key:          key,
			categoryCode: item.CategoryCode,
			normName:     Normalize(item.ProductName),
			name:         item.ProductName,
			note:         item.Note,
			unit:         item.Unit,
			qty:          item.Quantity,
		}
		byKey[key] = g
		groups = append(groups, g)
	}
	return groups
}

type matchResult struct {
	groups      []*group
	nameMatched bool
}

// matchingGroups attaches a response to the groups it names, or falls back to
// every group in its category when the offered name matches nothing. Offers
// against categories nobody requested match no group and drop out.
func matchingGroups(groups []*group, resp domain.SupplierResponse) matchResult {
	norm := Normalize(resp.ProductName)

	byName := make([]*group, 0, 1)
	byCategory := make([]*group, 0, 4)
	for _, g := range groups {
		if g.categoryCode != resp.CategoryCode {
			continue
		}
		byCategory = append(byCategory, g)
		if g.normName == norm {
			byName = append(byName, g)
		}
	}

	if len(byName) > 0 {
		return matchResult{groups: byName, nameMatched: true}
	}
	return matchResult{groups: byCategory, nameMatched: false}
}

func bucketOf(cand domain.RankedCandidate) int {
	switch {
	case cand.NameMatched && cand.QtyMatched:
		return 0
	case cand.QtyMatched:
		return 1
	case cand.NameMatched:
		return 2
	default:
		return 3
	}
}

// scorePartition assigns pricePoint and totalPoint. The price point goes to
// every candidate at the minimum price among exact matches; ties are left for
// the ordering step.
func scorePartition(cands []domain.RankedCandidate) {
	minExactPrice := int64(0)
	hasExact := false
	for _, c := range cands {
		if c.QtyPoint != 1 {
			continue
		}
		if !hasExact || c.Price < minExactPrice {
			minExactPrice = c.Price
			hasExact = true
		}
	}

	for i := range cands {
		if hasExact && cands[i].QtyPoint == 1 && cands[i].Price == minExactPrice {
			cands[i].PricePoint = 1
		}
		cands[i].TotalPoint = cands[i].QtyPoint + cands[i].PricePoint
	}
}

func orderPartition(cands []domain.RankedCandidate, policy Policy) {
	less := bucketedLess
	if policy == PolicyPoints {
		less = pointsLess
	}
	sort.SliceStable(cands, func(i, j int) bool { return less(cands[i], cands[j]) })
}

func bucketedLess(a domain.RankedCandidate, b domain.RankedCandidate) bool {
	if a.RankBucket != b.RankBucket {
		return a.RankBucket < b.RankBucket
	}
	if a.RankBucket == 2 && a.OfferedQty != b.OfferedQty {
		return a.OfferedQty > b.OfferedQty
	}
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return finalTieLess(a, b)
}

func pointsLess(a domain.RankedCandidate, b domain.RankedCandidate) bool {
	if a.TotalPoint != b.TotalPoint {
		return a.TotalPoint > b.TotalPoint
	}
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return finalTieLess(a, b)
}

// finalTieLess guarantees a total order. Supplier id first; response id last
// because category-mode partitions can hold two responses from one supplier.
func finalTieLess(a domain.RankedCandidate, b domain.RankedCandidate) bool {
	if a.SupplierID != b.SupplierID {
		return a.SupplierID < b.SupplierID
	}
	return a.ResponseID < b.ResponseID
}

func buildCacheKey(req Request) string {
	parts := make([]string, 0, len(req.Items)+len(req.Responses)+4)
	parts = append(parts, req.QuoteID, string(req.Mode), string(req.Policy), fmt.Sprintf("n:%d", req.TopN))
	for _, item := range req.Items {
		parts = append(parts, fmt.Sprintf("i:%s:%d", item.ID, item.Quantity))
	}
	for _, resp := range req.Responses {
		parts = append(parts, "r:"+resp.ID)
	}

	hash := sha1.Sum([]byte(strings.Join(parts, "|")))
	return "sq:ranking:" + hex.EncodeToString(hash[:])
}
