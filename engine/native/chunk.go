package native

import (
	"fmt"

	"github.com/arloliu/lazbridge/engine"
	"github.com/arloliu/lazbridge/errs"
	"github.com/arloliu/lazbridge/format"
	"github.com/arloliu/lazbridge/internal/fields"
)

// chunkDecoder decodes one compressed chunk whose geometry the caller supplies.
type chunkDecoder struct {
	mem       engine.Memory
	dec       *fields.PointDecompressor
	recordLen int
	deleted   bool
}

func (d *chunkDecoder) Open(pointFormat uint8, pointLength uint16, addr uint64) error {
	if d.deleted {
		return fmt.Errorf("%w: chunk decoder deleted", errs.ErrUseAfterFree)
	}
	if d.dec != nil {
		return fmt.Errorf("%w: chunk decoder already open", errs.ErrInvalidState)
	}

	f := format.PointFormat(pointFormat)
	if !f.Valid() {
		return fmt.Errorf("%w: %w: point format %d", errs.ErrInvalidHeader, errs.ErrUnsupportedFormat, pointFormat)
	}

	base := f.BaseRecordLength()
	if pointLength < base {
		return fmt.Errorf("%w: record length %d is shorter than %d for format %d",
			errs.ErrInvalidHeader, pointLength, base, pointFormat)
	}

	items, err := fields.ItemsForFormat(f, int(pointLength-base))
	if err != nil {
		return err
	}

	data, err := d.mem.Span(addr)
	if err != nil {
		return err
	}

	dec, err := fields.NewPointDecompressor(data, items)
	if err != nil {
		return err
	}
	d.dec = dec
	d.recordLen = int(pointLength)

	return nil
}

func (d *chunkDecoder) GetPoint(addr uint64) error {
	if d.deleted {
		return fmt.Errorf("%w: chunk decoder deleted", errs.ErrUseAfterFree)
	}
	if d.dec == nil {
		return fmt.Errorf("%w: chunk decoder not open", errs.ErrInvalidState)
	}

	out, err := d.mem.Span(addr)
	if err != nil {
		return err
	}

	return d.dec.Decompress(out)
}

func (d *chunkDecoder) Delete() {
	d.deleted = true
	d.dec = nil
}
