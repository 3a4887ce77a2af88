package storage

import "encoding/binary"

// Header offsets
const (
	offFlags  = 0
	offPageNo = 2

	// HeaderSize is the number of bytes reserved at the start of every page.
	HeaderSize = 6
)

// Page flags
const (
	PageFlagUsed uint16 = 1 << 0
)

// +------------------+ 0
// | flags   (2B)     |
// | pageNo  (4B)     |
// +------------------+ HeaderSize
// |                  |
// |   Payload        |
// |                  |
// +------------------+ PageSize (8192)
//
// The page number is embedded in the bytes themselves, so a write can always
// locate its destination from the buffer alone.
type Page struct {
	Buf []byte // fixed-size 8KB
}

// NewPage wraps buf as a page and stamps it with pageNo.
func NewPage(buf []byte, pageNo uint32) (*Page, error) {
	if len(buf) != PageSize {
		return nil, ErrWrongPageSize
	}
	p := &Page{Buf: buf}
	p.Reset(pageNo)
	return p, nil
}

func (p *Page) flags() uint16 {
	return binary.LittleEndian.Uint16(p.Buf[offFlags:])
}

func (p *Page) setFlags(v uint16) {
	binary.LittleEndian.PutUint16(p.Buf[offFlags:], v)
}

func (p *Page) PageNumber() uint32 {
	return binary.LittleEndian.Uint32(p.Buf[offPageNo:])
}

func (p *Page) SetPageNumber(v uint32) {
	binary.LittleEndian.PutUint32(p.Buf[offPageNo:], v)
}

// Data returns the payload portion of the page, after the header.
func (p *Page) Data() []byte {
	return p.Buf[HeaderSize:]
}

// Reset zeroes the whole buffer and re-stamps the header.
func (p *Page) Reset(pageNo uint32) {
	for i := range p.Buf {
		p.Buf[i] = 0
	}
	p.setFlags(PageFlagUsed)
	p.SetPageNumber(pageNo)
}

// IsUninitialized reports whether the buffer holds no live page. An all-zero
// header is what a short read past EOF or a deleted page leaves behind.
func (p *Page) IsUninitialized() bool {
	return p.flags()&PageFlagUsed == 0
}
