package format

type (
	// CompressionType identifies a general-purpose codec wrapping a host input buffer.
	CompressionType uint8
	// ItemType identifies a LASzip item in the LASzip VLR.
	ItemType uint16
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents a plain buffer.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard framing.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 block compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 block compression.
)

const (
	ItemByte      ItemType = 0  // ItemByte carries extra bytes after the standard fields.
	ItemPoint10   ItemType = 6  // ItemPoint10 carries the 20-byte core of formats 0-5.
	ItemGPSTime11 ItemType = 7  // ItemGPSTime11 carries the 8-byte GPS time.
	ItemRGB12     ItemType = 8  // ItemRGB12 carries three 16-bit color channels.
	ItemWave13    ItemType = 9  // ItemWave13 carries the waveform packet of formats 4 and 5.
	ItemPoint14   ItemType = 10 // ItemPoint14 carries the 30-byte core of formats 6-10.
	ItemRGB14     ItemType = 11 // ItemRGB14 carries color in layered chunks.
	ItemRGBNIR14  ItemType = 12 // ItemRGBNIR14 carries color and near infrared in layered chunks.
	ItemWave14    ItemType = 13 // ItemWave14 carries the waveform packet in layered chunks.
	ItemByte14    ItemType = 14 // ItemByte14 carries extra bytes in layered chunks.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

func (t ItemType) String() string {
	switch t {
	case ItemByte:
		return "Byte"
	case ItemPoint10:
		return "Point10"
	case ItemGPSTime11:
		return "GPSTime11"
	case ItemRGB12:
		return "RGB12"
	case ItemWave13:
		return "Wave13"
	case ItemPoint14:
		return "Point14"
	case ItemRGB14:
		return "RGB14"
	case ItemRGBNIR14:
		return "RGBNIR14"
	case ItemWave14:
		return "Wave14"
	case ItemByte14:
		return "Byte14"
	default:
		return "Unknown"
	}
}
