// Package stream broadcasts published particle frames to websocket
// clients in a compact binary form.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/pierrec/lz4/v4"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/swirl/geom"
	"github.com/pthm-cable/swirl/gradient"
	"github.com/pthm-cable/swirl/particles"
)

// Wire layout, little endian:
//
//	magic    [4]byte "SWF1"
//	flags    uint8   bit 0: payload is an lz4 block
//	nameLen  uint16, name bytes
//	sequence uint64
//	simTime  float64
//	box      7 × float32 (min xyz, max xyz, valid 0/1)
//	sphere   4 × float32 (center xyz, radius)
//	count    uint32  particles in the payload
//	rawLen   uint32  payload size before compression
//	payload  count × particleSize bytes, possibly compressed
//
// Each particle is position 3×float32, size float32, color 4×uint8,
// orientation float32, tile uint16 and two bytes of padding.
const (
	particleSize = 28
	flagLZ4      = 1

	// MaxDecodeParticles bounds the particle count Decode will allocate for.
	MaxDecodeParticles = 1 << 20
)

var magic = [4]byte{'S', 'W', 'F', '1'}

var (
	ErrBadMagic  = errors.New("stream: bad magic")
	ErrTruncated = errors.New("stream: truncated message")
	ErrTooLarge  = errors.New("stream: message exceeds particle limit")
)

// Particle is the decoded form of a streamed particle.
type Particle struct {
	Position    r3.Vec
	Size        float64
	Color       [4]uint8
	Orientation float64
	Tile        int
}

// Message is a decoded frame.
type Message struct {
	System     string
	Sequence   uint64
	SimTime    float64
	Box        geom.Box
	Sphere     geom.Sphere
	Compressed bool
	Particles  []Particle
}

// Encoder turns frames into messages. It reuses its buffers, so the
// returned slice is only valid until the next call.
type Encoder struct {
	Compress     bool
	MaxParticles int // 0 sends every particle

	raw []byte
	lz  []byte
	out []byte
}

// Encode serializes a frame of the named system. When MaxParticles is
// exceeded, particles are strided evenly.
func (e *Encoder) Encode(system string, f *particles.Frame) ([]byte, error) {
	if len(system) > math.MaxUint16 {
		return nil, fmt.Errorf("stream: system name too long (%d bytes)", len(system))
	}
	n, stride := f.Len(), 1.0
	if e.MaxParticles > 0 && n > e.MaxParticles {
		stride = float64(n) / float64(e.MaxParticles)
		n = e.MaxParticles
	}

	e.raw = grow(e.raw, n*particleSize)
	for i := range n {
		p := &f.Particles[int(float64(i)*stride)]
		putParticle(e.raw[i*particleSize:], p)
	}

	payload, flags := e.raw, uint8(0)
	if e.Compress && len(e.raw) > 0 {
		e.lz = grow(e.lz, lz4.CompressBlockBound(len(e.raw)))
		c, err := lz4.CompressBlock(e.raw, e.lz, nil)
		if err != nil {
			return nil, fmt.Errorf("stream: compress: %w", err)
		}
		// c == 0 means the block did not compress.
		if c > 0 && c < len(e.raw) {
			payload, flags = e.lz[:c], flagLZ4
		}
	}

	out := e.out[:0]
	out = append(out, magic[:]...)
	out = append(out, flags)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(system)))
	out = append(out, system...)
	out = binary.LittleEndian.AppendUint64(out, f.Sequence)
	out = binary.LittleEndian.AppendUint64(out, math.Float64bits(f.SimTime))
	valid := float32(0)
	if f.Box.Valid {
		valid = 1
	}
	for _, v := range []float64{f.Box.Min.X, f.Box.Min.Y, f.Box.Min.Z, f.Box.Max.X, f.Box.Max.Y, f.Box.Max.Z} {
		out = appendF32(out, float32(v))
	}
	out = appendF32(out, valid)
	for _, v := range []float64{f.Sphere.Center.X, f.Sphere.Center.Y, f.Sphere.Center.Z, f.Sphere.Radius} {
		out = appendF32(out, float32(v))
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(n))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(e.raw)))
	out = append(out, payload...)
	e.out = out
	return out, nil
}

func putParticle(b []byte, p *particles.Particle) {
	le := binary.LittleEndian
	le.PutUint32(b[0:], math.Float32bits(float32(p.Position.X)))
	le.PutUint32(b[4:], math.Float32bits(float32(p.Position.Y)))
	le.PutUint32(b[8:], math.Float32bits(float32(p.Position.Z)))
	le.PutUint32(b[12:], math.Float32bits(float32(p.CurrentSize())))
	c := colorBytes(p.Color)
	copy(b[16:20], c[:])
	le.PutUint32(b[20:], math.Float32bits(float32(p.Orientation)))
	le.PutUint16(b[24:], uint16(min(max(p.TilingIndex, 0), math.MaxUint16)))
	b[26], b[27] = 0, 0
}

func colorBytes(c gradient.RGBA) [4]uint8 {
	q := func(v float64) uint8 { return uint8(min(max(v, 0), 1)*255 + 0.5) }
	return [4]uint8{q(c.R), q(c.G), q(c.B), q(c.A)}
}

func appendF32(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}

func grow(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}

// reader walks a message, latching the first short read.
type reader struct {
	b   []byte
	err error
}

func (r *reader) next(n int) []byte {
	if r.err != nil || len(r.b) < n {
		r.err = ErrTruncated
		return make([]byte, n)
	}
	out := r.b[:n]
	r.b = r.b[n:]
	return out
}

func (r *reader) u16() uint16  { return binary.LittleEndian.Uint16(r.next(2)) }
func (r *reader) u32() uint32  { return binary.LittleEndian.Uint32(r.next(4)) }
func (r *reader) u64() uint64  { return binary.LittleEndian.Uint64(r.next(8)) }
func (r *reader) f32() float64 { return float64(math.Float32frombits(r.u32())) }

// Decode parses a message produced by Encoder.
func Decode(data []byte) (Message, error) {
	var m Message
	r := &reader{b: data}
	if [4]byte(r.next(4)) != magic {
		if r.err != nil {
			return m, r.err
		}
		return m, ErrBadMagic
	}
	flags := r.next(1)[0]
	m.Compressed = flags&flagLZ4 != 0
	m.System = string(r.next(int(r.u16())))
	m.Sequence = r.u64()
	m.SimTime = math.Float64frombits(r.u64())
	m.Box.Min = r3.Vec{X: r.f32(), Y: r.f32(), Z: r.f32()}
	m.Box.Max = r3.Vec{X: r.f32(), Y: r.f32(), Z: r.f32()}
	m.Box.Valid = r.f32() != 0
	m.Sphere.Center = r3.Vec{X: r.f32(), Y: r.f32(), Z: r.f32()}
	m.Sphere.Radius = r.f32()
	count := int(r.u32())
	rawLen := int(r.u32())
	if r.err != nil {
		return m, r.err
	}
	if count > MaxDecodeParticles {
		return m, fmt.Errorf("%w: %d particles", ErrTooLarge, count)
	}
	if rawLen != count*particleSize {
		return m, fmt.Errorf("stream: payload of %d bytes for %d particles", rawLen, count)
	}

	raw := r.b
	if m.Compressed {
		raw = make([]byte, rawLen)
		n, err := lz4.UncompressBlock(r.b, raw)
		if err != nil {
			return m, fmt.Errorf("stream: decompress: %w", err)
		}
		raw = raw[:n]
	}
	if len(raw) != rawLen {
		return m, ErrTruncated
	}

	m.Particles = make([]Particle, count)
	le := binary.LittleEndian
	f32 := func(b []byte) float64 { return float64(math.Float32frombits(le.Uint32(b))) }
	for i := range m.Particles {
		b := raw[i*particleSize:]
		m.Particles[i] = Particle{
			Position:    r3.Vec{X: f32(b[0:]), Y: f32(b[4:]), Z: f32(b[8:])},
			Size:        f32(b[12:]),
			Color:       [4]uint8(b[16:20]),
			Orientation: f32(b[20:]),
			Tile:        int(le.Uint16(b[24:])),
		}
	}
	return m, nil
}
