package enums

// ProductSort selects the ordering of catalog listings.
type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortPriceLow  ProductSort = "price_low"
	ProductSortPriceHigh ProductSort = "price_high"
	ProductSortRating    ProductSort = "rating"
)

// ParseProductSort falls back to newest for unknown values.
func ParseProductSort(value string) ProductSort {
	switch ProductSort(value) {
	case ProductSortPriceLow, ProductSortPriceHigh, ProductSortRating:
		return ProductSort(value)
	default:
		return ProductSortNewest
	}
}
