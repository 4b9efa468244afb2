package fields

import (
	"fmt"

	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/format"
	"github.com/arloliu/lazbridge/section"
)

// Item sizes in bytes.
const (
	Point10Size   = 20
	GPSTime11Size = 8
	RGB12Size     = 6

	// ItemVersion is the only item version this package codes.
	ItemVersion = 2
)

// ItemsForFormat returns the LASzip item list of a point format with extra bytes.
//
// Returns:
//   - []section.Item: Items in record order
//   - error: ErrUnsupportedFormat for formats other than 0-3, ErrInvalidHeader for negative extra bytes
func ItemsForFormat(f format.PointFormat, extraBytes int) ([]section.Item, error) {
	if extraBytes < 0 || extraBytes > 0xFFFF {
		return nil, fmt.Errorf("%w: %d extra bytes", errs.ErrInvalidHeader, extraBytes)
	}

	items := []section.Item{{Type: format.ItemPoint10, Size: Point10Size, Version: ItemVersion}}

	switch f {
	case 0:
	case 1:
		items = append(items, section.Item{Type: format.ItemGPSTime11, Size: GPSTime11Size, Version: ItemVersion})
	case 2:
		items = append(items, section.Item{Type: format.ItemRGB12, Size: RGB12Size, Version: ItemVersion})
	case 3:
		items = append(items,
			section.Item{Type: format.ItemGPSTime11, Size: GPSTime11Size, Version: ItemVersion},
			section.Item{Type: format.ItemRGB12, Size: RGB12Size, Version: ItemVersion},
		)
	default:
		return nil, fmt.Errorf("%w: point format %d", errs.ErrUnsupportedFormat, f)
	}

	if extraBytes > 0 {
		items = append(items, section.Item{Type: format.ItemByte, Size: uint16(extraBytes), Version: ItemVersion}) //nolint:gosec
	}

	return items, nil
}

// ValidateItems checks that every item can be decoded by this package.
func ValidateItems(items []section.Item) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: empty item list", errs.ErrUnsupportedFormat)
	}

	for i, item := range items {
		if item.Version != ItemVersion {
			return fmt.Errorf("%w: item %d (%s) version %d", errs.ErrUnsupportedFormat, i, item.Type, item.Version)
		}

		var want uint16
		switch item.Type {
		case format.ItemPoint10:
			want = Point10Size
		case format.ItemGPSTime11:
			want = GPSTime11Size
		case format.ItemRGB12:
			want = RGB12Size
		case format.ItemByte:
			want = item.Size
		default:
			return fmt.Errorf("%w: item %d type %s", errs.ErrUnsupportedFormat, i, item.Type)
		}

		if item.Size != want || item.Size == 0 {
			return fmt.Errorf("%w: item %d (%s) size %d", errs.ErrInvalidHeader, i, item.Type, item.Size)
		}
	}

	return nil
}

// RecordLength returns the sum of the item sizes.
func RecordLength(items []section.Item) int {
	n := 0
	for _, item := range items {
		n += int(item.Size)
	}

	return n
}
