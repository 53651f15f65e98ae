package layout

import "sort"

// ItemKind tags a ContentItem.
type ItemKind int

const (
	ItemText ItemKind = iota
	ItemTable
	ItemImage
)

// String returns the item kind name
func (k ItemKind) String() string {
	switch k {
	case ItemText:
		return "text"
	case ItemTable:
		return "table"
	case ItemImage:
		return "image"
	default:
		return "unknown"
	}
}

// ContentItem is one entry of a page's reading order. Text items carry a
// single row, table items the rows of one TableRange, image items an image.
// Y is the ordering key.
type ContentItem struct {
	Kind  ItemKind
	Y     float64
	Rows  []Row
	Image *RasterImage
}

// Order merges images, detected tables and the remaining rows of a page
// into one list, top of page first. The sort is stable, so equal keys keep
// the insertion order images, tables, rows.
func Order(rows []Row, tables []TableRange, images []RasterImage) []ContentItem {
	items := make([]ContentItem, 0, len(rows)+len(images))

	for i := range images {
		img := images[i]
		items = append(items, ContentItem{Kind: ItemImage, Y: img.Y, Image: &img})
	}

	for _, t := range tables {
		tableRows := t.Rows(rows)
		var sum float64
		for _, r := range tableRows {
			sum += r.Y
		}
		items = append(items, ContentItem{
			Kind: ItemTable,
			Y:    sum / float64(len(tableRows)),
			Rows: tableRows,
		})
	}

	for i, r := range rows {
		if inAnyTable(tables, i) {
			continue
		}
		items = append(items, ContentItem{Kind: ItemText, Y: r.Y, Rows: []Row{r}})
	}

	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Y > items[b].Y
	})
	return items
}

func inAnyTable(tables []TableRange, i int) bool {
	for _, t := range tables {
		if t.Contains(i) {
			return true
		}
	}
	return false
}
