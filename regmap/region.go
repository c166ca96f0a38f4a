// Package regmap maps TWI controller registers onto byte-addressed memory
// regions, both ways.
package regmap

import "errors"

type RegionName string

type MemoryRegion interface {
	GetLength() int
	Access(write bool, addr int, buf []byte) (int, error)
	GetParent() (MemoryRegion, int)
	GetName() RegionName
	GetAlignment() int
}

var (
	ErrorAlignment = errors.New("Address or data alignment has been violated")
	ErrorShortIO   = errors.New("Region transferred fewer bytes than requested")
)

type regionCompleteIO struct {
	MemoryRegion
}

// WrapCompleteIO repeats accesses on parent until the whole buffer has been
// transferred, for regions that move a few bytes per exchange.
func WrapCompleteIO(parent MemoryRegion) MemoryRegion {
	return regionCompleteIO{
		MemoryRegion: parent,
	}
}

func (m regionCompleteIO) Access(write bool, addr int, buf []byte) (int, error) {
	align := m.GetAlignment()
	if addr&(align-1) != 0 {
		return 0, ErrorAlignment
	} else if write && len(buf)%align != 0 {
		return 0, ErrorAlignment
	}

	total := 0
	for len(buf) > 0 {
		n, err := m.MemoryRegion.Access(write, addr+total, buf)
		total += n
		buf = buf[n:]

		if err != nil || n == 0 {
			return total, err
		}
	}

	return total, nil
}

func WriteByte(m MemoryRegion, addr int, value byte) error {
	n, err := m.Access(true, addr, []byte{value})
	if err == nil && n != 1 {
		err = ErrorShortIO
	}
	return err
}

func ReadByte(m MemoryRegion, addr int) (byte, error) {
	var buf [1]byte
	n, err := m.Access(false, addr, buf[:])
	if err == nil && n != 1 {
		err = ErrorShortIO
	}
	return buf[0], err
}

type regionPartial struct {
	parent MemoryRegion
	offset int
	length int
	name   RegionName
}

// WrapPartial exposes length bytes of parent starting at offset.
func WrapPartial(name RegionName, parent MemoryRegion, offset int, length int) MemoryRegion {
	return regionPartial{
		parent: parent,
		offset: offset,
		length: length,
		name:   name,
	}
}

func (h regionPartial) GetName() RegionName {
	return h.name
}

func (h regionPartial) GetLength() int {
	return h.length
}

func (h regionPartial) GetParent() (MemoryRegion, int) {
	return h.parent, h.offset
}

func (h regionPartial) GetAlignment() int {
	return h.parent.GetAlignment()
}

func (h regionPartial) Access(write bool, addr int, buf []byte) (int, error) {
	if len(buf)+addr > h.length {
		if addr >= h.length {
			return 0, nil
		}
		buf = buf[:h.length-addr]
	}

	return h.parent.Access(write, h.offset+addr, buf)
}

// RecursiveGetParentAddress follows the parent chain and returns the
// outermost region together with the address of offset inside it.
func RecursiveGetParentAddress(region MemoryRegion, offset int) (MemoryRegion, int) {
	for {
		var parentOffset int
		prevRegion := region
		region, parentOffset = region.GetParent()

		offset += parentOffset

		if region == nil {
			return prevRegion, offset
		}
	}
}

// RAM is a region backed by a byte slice.
type RAM struct {
	name RegionName
	Data []byte
}

func NewRAM(name RegionName, size int) *RAM {
	return &RAM{
		name: name,
		Data: make([]byte, size),
	}
}

func (r *RAM) GetName() RegionName {
	return r.name
}

func (r *RAM) GetLength() int {
	return len(r.Data)
}

func (r *RAM) GetParent() (MemoryRegion, int) {
	return nil, 0
}

func (r *RAM) GetAlignment() int {
	return 1
}

func (r *RAM) Access(write bool, addr int, buf []byte) (int, error) {
	if addr >= len(r.Data) {
		return 0, nil
	}
	if write {
		return copy(r.Data[addr:], buf), nil
	}
	return copy(buf, r.Data[addr:]), nil
}
