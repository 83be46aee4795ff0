package ranking

import (
	"sort"

	"smartquote/backend/internal/domain"
)

// LatestPerSupplier collapses repeated submissions down to the single current
// offer per (item, supplier, area). Newest timestamp wins; equal timestamps
// fall back to the larger response id so re-runs agree.
func LatestPerSupplier(responses []domain.SupplierResponse) []domain.SupplierResponse {
	type key struct {
		itemID     string
		supplierID string
		areaCode   string
	}

	latest := make(map[key]domain.SupplierResponse, len(responses))
	for _, resp := range responses {
		k := key{itemID: resp.ItemID, supplierID: resp.SupplierID, areaCode: resp.AreaCode}
		current, ok := latest[k]
		if !ok {
			latest[k] = resp
			continue
		}
		if resp.CreatedAt.After(current.CreatedAt) ||
			(resp.CreatedAt.Equal(current.CreatedAt) && resp.ID > current.ID) {
			latest[k] = resp
		}
	}

	result := make([]domain.SupplierResponse, 0, len(latest))
	for _, resp := range latest {
		result = append(result, resp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
