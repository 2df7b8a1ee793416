package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/jfreymuth/vorbis"
	"github.com/jj11hh/opus"
)

const (
	oggHeaderSize  = 27
	oggTailScan    = 64 * 1024
	opusRate       = 48000
	opusMaxFrame   = 5760
	oggContinued   = 0x01
	noGranule      = -1
	vorbisHeaders  = 3
	opusHeaders    = 2
	opusHeadLength = 19
)

var (
	errOggMagic   = errors.New("ogg: invalid capture pattern")
	errOggVersion = errors.New("ogg: unsupported version")
	errOggCodec   = errors.New("ogg: unknown codec (not Opus or Vorbis)")
	errOggHeader  = errors.New("ogg: invalid codec header")
)

// oggPage is one physical Ogg page split into packets. tail holds a packet
// that continues on the next page.
type oggPage struct {
	granule   int64
	continued bool
	packets   [][]byte
	tail      []byte
}

type oggPageHeader struct {
	granule   int64
	continued bool
	lacing    []byte
}

func (h oggPageHeader) bodySize() int64 {
	var n int64
	for _, l := range h.lacing {
		n += int64(l)
	}
	return n
}

func readOggHeader(r io.Reader) (oggPageHeader, error) {
	var b [oggHeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return oggPageHeader{}, err
	}
	if string(b[:4]) != "OggS" {
		return oggPageHeader{}, errOggMagic
	}
	if b[4] != 0 {
		return oggPageHeader{}, errOggVersion
	}
	h := oggPageHeader{
		granule:   int64(binary.LittleEndian.Uint64(b[6:14])), //nolint:gosec // granule is a signed field
		continued: b[5]&oggContinued != 0,
		lacing:    make([]byte, b[26]),
	}
	if _, err := io.ReadFull(r, h.lacing); err != nil {
		return oggPageHeader{}, err
	}
	return h, nil
}

func readOggPage(r io.Reader) (oggPage, error) {
	h, err := readOggHeader(r)
	if err != nil {
		return oggPage{}, err
	}
	body := make([]byte, h.bodySize())
	if _, err := io.ReadFull(r, body); err != nil {
		return oggPage{}, err
	}

	page := oggPage{granule: h.granule, continued: h.continued}
	var cur []byte
	off := 0
	for _, l := range h.lacing {
		cur = append(cur, body[off:off+int(l)]...)
		off += int(l)
		if l < 255 {
			page.packets = append(page.packets, cur)
			cur = nil
		}
	}
	page.tail = cur
	return page, nil
}

// oggDemuxer yields the packets of a single logical bitstream in order.
type oggDemuxer struct {
	r       io.Reader
	queue   [][]byte
	partial []byte
}

func (d *oggDemuxer) packet() ([]byte, error) {
	for len(d.queue) == 0 {
		page, err := readOggPage(d.r)
		if err != nil {
			return nil, err
		}
		if page.continued && d.partial != nil {
			if len(page.packets) > 0 {
				page.packets[0] = append(d.partial, page.packets[0]...)
			} else {
				page.tail = append(d.partial, page.tail...)
			}
		}
		d.partial = page.tail
		d.queue = page.packets
	}
	p := d.queue[0]
	d.queue = d.queue[1:]
	return p, nil
}

func (d *oggDemuxer) reset(r io.Reader) {
	d.r = r
	d.queue = nil
	d.partial = nil
}

type oggCodec interface {
	rate() int
	channels() int
	preSkip() int
	// header consumes one header packet and reports whether all headers
	// have been seen.
	header(packet []byte) (bool, error)
	// decode returns interleaved samples.
	decode(packet []byte) ([]float32, error)
	reset()
}

func newOggCodec(first []byte) (oggCodec, error) {
	switch {
	case bytes.HasPrefix(first, []byte("OpusHead")):
		return newOpusCodec(first)
	case len(first) >= 7 && first[0] == 0x01 && string(first[1:7]) == "vorbis":
		return newVorbisCodec(first)
	default:
		return nil, errOggCodec
	}
}

type vorbisCodec struct {
	dec     vorbis.Decoder
	ch      int
	sr      int
	pending [][]byte
}

func newVorbisCodec(ident []byte) (*vorbisCodec, error) {
	if len(ident) < 16 || binary.LittleEndian.Uint32(ident[7:11]) != 0 {
		return nil, errOggHeader
	}
	return &vorbisCodec{
		ch: int(ident[11]),
		sr: int(binary.LittleEndian.Uint32(ident[12:16])),
	}, nil
}

func (c *vorbisCodec) rate() int     { return c.sr }
func (c *vorbisCodec) channels() int { return c.ch }
func (c *vorbisCodec) preSkip() int  { return 0 }

func (c *vorbisCodec) header(packet []byte) (bool, error) {
	c.pending = append(c.pending, bytes.Clone(packet))
	if len(c.pending) < vorbisHeaders {
		return false, nil
	}
	for _, h := range c.pending {
		if err := c.dec.ReadHeader(h); err != nil {
			return false, err
		}
	}
	c.pending = nil
	return true, nil
}

func (c *vorbisCodec) decode(packet []byte) ([]float32, error) {
	return c.dec.Decode(packet)
}

func (c *vorbisCodec) reset() { c.dec.Clear() }

type opusCodec struct {
	dec  *opus.Decoder
	ch   int
	skip int
	seen int
	pcm  []float32
}

func newOpusCodec(head []byte) (*opusCodec, error) {
	if len(head) < opusHeadLength || head[8] != 1 {
		return nil, errOggHeader
	}
	ch := int(head[9])
	dec, err := opus.NewDecoder(opusRate, ch)
	if err != nil {
		return nil, err
	}
	return &opusCodec{
		dec:  dec,
		ch:   ch,
		skip: int(binary.LittleEndian.Uint16(head[10:12])),
		pcm:  make([]float32, opusMaxFrame*ch),
	}, nil
}

func (c *opusCodec) rate() int     { return opusRate }
func (c *opusCodec) channels() int { return c.ch }
func (c *opusCodec) preSkip() int  { return c.skip }

// header counts OpusHead (already parsed) and OpusTags.
func (c *opusCodec) header([]byte) (bool, error) {
	c.seen++
	return c.seen >= opusHeaders, nil
}

func (c *opusCodec) decode(packet []byte) ([]float32, error) {
	n, err := c.dec.DecodeFloat32(packet, c.pcm)
	if err != nil {
		return nil, err
	}
	return c.pcm[:n*c.ch], nil
}

func (c *opusCodec) reset() {}

type oggStream struct {
	rs        io.ReadSeekCloser
	demux     oggDemuxer
	codec     oggCodec
	dataStart int64
	total     int
	pos       int
	skip      int
	pcm       []float32
	pcmIdx    int
	err       error
}

func decodeOgg(rs io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	s := &oggStream{rs: rs}
	s.demux.reset(rs)

	first, err := s.demux.packet()
	if err != nil {
		return nil, beep.Format{}, err
	}
	codec, err := newOggCodec(first)
	if err != nil {
		return nil, beep.Format{}, err
	}
	for done := false; !done; {
		if done, err = codec.header(first); err != nil {
			return nil, beep.Format{}, err
		}
		if done {
			break
		}
		if first, err = s.demux.packet(); err != nil {
			return nil, beep.Format{}, err
		}
	}

	// Audio packets start on a fresh page.
	if s.dataStart, err = rs.Seek(0, io.SeekCurrent); err != nil {
		return nil, beep.Format{}, err
	}
	s.codec = codec
	s.skip = codec.preSkip()
	if last, ok := lastGranule(rs); ok {
		s.total = int(max(last-int64(codec.preSkip()), 0))
	}
	if _, err := rs.Seek(s.dataStart, io.SeekStart); err != nil {
		return nil, beep.Format{}, err
	}
	s.demux.reset(rs)

	format := beep.Format{
		SampleRate:  beep.SampleRate(codec.rate()),
		NumChannels: codec.channels(),
		Precision:   2,
	}
	return s, format, nil
}

// lastGranule reads the granule position of the final page in the stream.
func lastGranule(rs io.ReadSeeker) (int64, bool) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil || size < oggHeaderSize {
		return 0, false
	}
	from := max(size-oggTailScan, 0)
	if _, err := rs.Seek(from, io.SeekStart); err != nil {
		return 0, false
	}
	tail := make([]byte, size-from)
	if _, err := io.ReadFull(rs, tail); err != nil {
		return 0, false
	}
	for i := bytes.LastIndex(tail, []byte("OggS")); i >= 0; i = bytes.LastIndex(tail[:i], []byte("OggS")) {
		if len(tail)-i < oggHeaderSize {
			continue
		}
		g := int64(binary.LittleEndian.Uint64(tail[i+6 : i+14])) //nolint:gosec // granule is a signed field
		if g != noGranule {
			return g, true
		}
	}
	return 0, false
}

func (s *oggStream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}
	ch := s.codec.channels()
	for n < len(samples) {
		if s.total > 0 && s.pos >= s.total {
			break
		}
		if s.pcmIdx < len(s.pcm) {
			left := float64(s.pcm[s.pcmIdx])
			right := left
			if ch > 1 {
				right = float64(s.pcm[s.pcmIdx+1])
			}
			samples[n] = [2]float64{left, right}
			s.pcmIdx += ch
			s.pos++
			n++
			continue
		}
		packet, err := s.demux.packet()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				s.err = err
			}
			break
		}
		pcm, err := s.codec.decode(packet)
		if err != nil {
			continue
		}
		s.pcm, s.pcmIdx = pcm, 0
		if s.skip > 0 {
			drop := min(s.skip, len(pcm)/ch)
			s.pcmIdx = drop * ch
			s.skip -= drop
		}
	}
	return n, n > 0
}

func (s *oggStream) Err() error { return s.err }

func (s *oggStream) Len() int { return s.total }

func (s *oggStream) Position() int { return s.pos }

// Seek scans page headers for the page holding p and decodes forward from
// the start of that page.
func (s *oggStream) Seek(p int) error {
	p = min(max(p, 0), s.total)
	target := int64(p + s.codec.preSkip())

	offset, err := s.rs.Seek(s.dataStart, io.SeekStart)
	if err != nil {
		return err
	}
	start, base := offset, int64(0)
	for {
		h, err := readOggHeader(s.rs)
		if err != nil {
			break
		}
		if h.granule != noGranule && h.granule >= target {
			break
		}
		next, err := s.rs.Seek(h.bodySize(), io.SeekCurrent)
		if err != nil {
			return err
		}
		if h.granule != noGranule {
			start, base = next, h.granule
		}
	}

	if _, err := s.rs.Seek(start, io.SeekStart); err != nil {
		return err
	}
	s.demux.reset(s.rs)
	s.codec.reset()
	s.pcm, s.pcmIdx = nil, 0
	s.skip = int(max(target-base, 0))
	s.pos = p
	s.err = nil
	return nil
}

func (s *oggStream) Close() error { return s.rs.Close() }
