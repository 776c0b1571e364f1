// Package protowire é uma camada fina sobre google.golang.org/protobuf/encoding/protowire
// com a API de encoder/decoder por campo usada pelas mensagens do FortressModels.
// Wire types: 0=Varint, 1=64bit, 2=LengthDelimited, 5=32bit
package protowire

import (
	"errors"
	"fmt"
	"math"

	pw "google.golang.org/protobuf/encoding/protowire"
)

// WireType constantes do protobuf
const (
	WireVarint          = pw.VarintType
	Wire64Bit           = pw.Fixed64Type
	WireLengthDelimited = pw.BytesType
	Wire32Bit           = pw.Fixed32Type
)

// ---------- ENCODER ----------

// Encoder acumula bytes no formato protobuf.
type Encoder struct {
	buf []byte
}

// NewEncoder cria um encoder vazio.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Bytes retorna o buffer serializado.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Reset limpa o buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

func (e *Encoder) tag(fieldNum int, t pw.Type) {
	e.buf = pw.AppendTag(e.buf, pw.Number(fieldNum), t)
}

// EncodeVarint codifica um campo varint com sinal (zigzag não é usado).
func (e *Encoder) EncodeVarint(fieldNum int, v int64) {
	if v == 0 {
		return // proto3: zero é valor default, não serializa
	}
	e.tag(fieldNum, pw.VarintType)
	e.buf = pw.AppendVarint(e.buf, uint64(v))
}

// EncodeUvarint codifica uint64.
func (e *Encoder) EncodeUvarint(fieldNum int, v uint64) {
	if v == 0 {
		return
	}
	e.tag(fieldNum, pw.VarintType)
	e.buf = pw.AppendVarint(e.buf, v)
}

// EncodeBool codifica um boolean.
func (e *Encoder) EncodeBool(fieldNum int, v bool) {
	if !v {
		return
	}
	e.tag(fieldNum, pw.VarintType)
	e.buf = pw.AppendVarint(e.buf, 1)
}

// EncodeString codifica uma string.
func (e *Encoder) EncodeString(fieldNum int, v string) {
	if v == "" {
		return
	}
	e.tag(fieldNum, pw.BytesType)
	e.buf = pw.AppendString(e.buf, v)
}

// EncodeSubmessage codifica uma submensagem (length-delimited), mesmo vazia.
func (e *Encoder) EncodeSubmessage(fieldNum int, sub []byte) {
	e.tag(fieldNum, pw.BytesType)
	e.buf = pw.AppendBytes(e.buf, sub)
}

// EncodeFixed32 codifica um float32 como fixed32.
func (e *Encoder) EncodeFixed32(fieldNum int, v float32) {
	if v == 0 {
		return
	}
	e.tag(fieldNum, pw.Fixed32Type)
	e.buf = pw.AppendFixed32(e.buf, math.Float32bits(v))
}

// EncodePackedFixed32 codifica um repeated float como packed.
func (e *Encoder) EncodePackedFixed32(fieldNum int, values []float32) {
	if len(values) == 0 {
		return
	}
	sub := make([]byte, 0, len(values)*4)
	for _, v := range values {
		sub = pw.AppendFixed32(sub, math.Float32bits(v))
	}
	e.tag(fieldNum, pw.BytesType)
	e.buf = pw.AppendBytes(e.buf, sub)
}

// EncodePackedUvarint codifica um repeated uint32 como packed varint.
func (e *Encoder) EncodePackedUvarint(fieldNum int, values []uint32) {
	if len(values) == 0 {
		return
	}
	var sub []byte
	for _, v := range values {
		sub = pw.AppendVarint(sub, uint64(v))
	}
	e.tag(fieldNum, pw.BytesType)
	e.buf = pw.AppendBytes(e.buf, sub)
}

// ---------- DECODER ----------

// Decoder lê campos protobuf de um buffer.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder cria um decoder sobre um buffer.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Done retorna true se não há mais bytes.
func (d *Decoder) Done() bool {
	return d.pos >= len(d.buf)
}

// Remaining retorna os bytes restantes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

func (d *Decoder) advance(n int, what string) error {
	if n < 0 {
		return fmt.Errorf("protowire: %s: %w", what, pw.ParseError(n))
	}
	d.pos += n
	return nil
}

// ReadTag lê o próximo tag.
func (d *Decoder) ReadTag() (fieldNum int, wireType pw.Type, err error) {
	num, typ, n := pw.ConsumeTag(d.buf[d.pos:])
	if err := d.advance(n, "tag"); err != nil {
		return 0, 0, err
	}
	return int(num), typ, nil
}

// ReadVarint lê um varint.
func (d *Decoder) ReadVarint() (uint64, error) {
	v, n := pw.ConsumeVarint(d.buf[d.pos:])
	if err := d.advance(n, "varint"); err != nil {
		return 0, err
	}
	return v, nil
}

// ReadBytes lê um campo length-delimited. O slice retornado aponta para o buffer original.
func (d *Decoder) ReadBytes() ([]byte, error) {
	v, n := pw.ConsumeBytes(d.buf[d.pos:])
	if err := d.advance(n, "bytes"); err != nil {
		return nil, err
	}
	return v, nil
}

// ReadString lê uma string.
func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadBytes()
	return string(b), err
}

// ReadFixed32 lê um float32.
func (d *Decoder) ReadFixed32() (float32, error) {
	v, n := pw.ConsumeFixed32(d.buf[d.pos:])
	if err := d.advance(n, "fixed32"); err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadPackedFixed32 lê um repeated float packed.
func (d *Decoder) ReadPackedFixed32() ([]float32, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return nil, err
	}
	if len(b)%4 != 0 {
		return nil, errors.New("protowire: packed fixed32 com tamanho inválido")
	}
	out := make([]float32, 0, len(b)/4)
	for len(b) > 0 {
		v, n := pw.ConsumeFixed32(b)
		if n < 0 {
			return nil, pw.ParseError(n)
		}
		out = append(out, math.Float32frombits(v))
		b = b[n:]
	}
	return out, nil
}

// ReadPackedUvarint lê um repeated uint32 packed.
func (d *Decoder) ReadPackedUvarint() ([]uint32, error) {
	b, err := d.ReadBytes()
	if err != nil {
		return nil, err
	}
	var out []uint32
	for len(b) > 0 {
		v, n := pw.ConsumeVarint(b)
		if n < 0 {
			return nil, pw.ParseError(n)
		}
		if v > math.MaxUint32 {
			return nil, errors.New("protowire: valor packed excede uint32")
		}
		out = append(out, uint32(v))
		b = b[n:]
	}
	return out, nil
}

// SkipField pula o valor de um campo desconhecido.
func (d *Decoder) SkipField(fieldNum int, wireType pw.Type) error {
	n := pw.ConsumeFieldValue(pw.Number(fieldNum), wireType, d.buf[d.pos:])
	return d.advance(n, "skip")
}
