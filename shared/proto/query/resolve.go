package query

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"FortressModels/shared/model"
	"FortressModels/shared/pkg/protowire"
)

// ResolveRequest pede o modelo de um identificador dentro de uma classe de forma.
type ResolveRequest struct {
	ID    uint32 // ecoado na resposta
	Shape int32
	Path  string // forma textual, ex. "INORGANIC:GRANITE"
}

// ResolveResponse carrega o resultado classificado da consulta.
// Match segue catalog.MatchKind (0=Exact, 1=Fallback, 2=Missing).
type ResolveResponse struct {
	ID          uint32
	Match       int32
	ModelIndex  uint32
	Transparent bool
	Primitives  []Primitive
	Error       string
}

// Primitive é uma primitiva finalizada com buffers achatados.
type Primitive struct {
	Kind      uint32
	Positions []float32 // xyz por vértice
	UVs       []float32 // uv por vértice, já na página do atlas
	Normals   []float32 // xyz por vértice
	Indices   []uint32
	Normal    []float32 // 3 valores, só quads
	Page      int32
	CullKind  uint32
	CullDir   uint32
	Remap     []float32 // offset.x, offset.y, scale.x, scale.y
}

func (m *ResolveRequest) Marshal() []byte {
	e := protowire.NewEncoder()
	e.EncodeUvarint(1, uint64(m.ID))
	e.EncodeVarint(2, int64(m.Shape))
	e.EncodeString(3, m.Path)
	return e.Bytes()
}

func (m *ResolveRequest) Unmarshal(data []byte) error {
	d := protowire.NewDecoder(data)
	for !d.Done() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1:
			v, err := d.ReadVarint()
			if err != nil {
				return err
			}
			m.ID = uint32(v)
		case 2:
			v, err := d.ReadVarint()
			if err != nil {
				return err
			}
			m.Shape = int32(v)
		case 3:
			v, err := d.ReadString()
			if err != nil {
				return err
			}
			m.Path = v
		default:
			if err := d.SkipField(fieldNum, wireType); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *ResolveResponse) Marshal() []byte {
	e := protowire.NewEncoder()
	e.EncodeUvarint(1, uint64(m.ID))
	e.EncodeVarint(2, int64(m.Match))
	e.EncodeUvarint(3, uint64(m.ModelIndex))
	e.EncodeBool(4, m.Transparent)
	for i := range m.Primitives {
		e.EncodeSubmessage(5, m.Primitives[i].Marshal())
	}
	e.EncodeString(6, m.Error)
	return e.Bytes()
}

func (m *ResolveResponse) Unmarshal(data []byte) error {
	d := protowire.NewDecoder(data)
	for !d.Done() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1:
			v, err := d.ReadVarint()
			if err != nil {
				return err
			}
			m.ID = uint32(v)
		case 2:
			v, err := d.ReadVarint()
			if err != nil {
				return err
			}
			m.Match = int32(v)
		case 3:
			v, err := d.ReadVarint()
			if err != nil {
				return err
			}
			m.ModelIndex = uint32(v)
		case 4:
			v, err := d.ReadVarint()
			if err != nil {
				return err
			}
			m.Transparent = v != 0
		case 5:
			sub, err := d.ReadBytes()
			if err != nil {
				return err
			}
			var p Primitive
			if err := p.Unmarshal(sub); err != nil {
				return err
			}
			m.Primitives = append(m.Primitives, p)
		case 6:
			v, err := d.ReadString()
			if err != nil {
				return err
			}
			m.Error = v
		default:
			if err := d.SkipField(fieldNum, wireType); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Primitive) Marshal() []byte {
	e := protowire.NewEncoder()
	e.EncodeUvarint(1, uint64(p.Kind))
	e.EncodePackedFixed32(2, p.Positions)
	e.EncodePackedFixed32(3, p.UVs)
	e.EncodePackedFixed32(4, p.Normals)
	e.EncodePackedUvarint(5, p.Indices)
	e.EncodePackedFixed32(6, p.Normal)
	e.EncodeVarint(7, int64(p.Page))
	e.EncodeUvarint(8, uint64(p.CullKind))
	e.EncodeUvarint(9, uint64(p.CullDir))
	e.EncodePackedFixed32(10, p.Remap)
	return e.Bytes()
}

func (p *Primitive) Unmarshal(data []byte) error {
	d := protowire.NewDecoder(data)
	for !d.Done() {
		fieldNum, wireType, err := d.ReadTag()
		if err != nil {
			return err
		}
		switch fieldNum {
		case 1, 7, 8, 9:
			v, err := d.ReadVarint()
			if err != nil {
				return err
			}
			switch fieldNum {
			case 1:
				p.Kind = uint32(v)
			case 7:
				p.Page = int32(v)
			case 8:
				p.CullKind = uint32(v)
			case 9:
				p.CullDir = uint32(v)
			}
		case 2, 3, 4, 6, 10:
			v, err := d.ReadPackedFixed32()
			if err != nil {
				return err
			}
			switch fieldNum {
			case 2:
				p.Positions = v
			case 3:
				p.UVs = v
			case 4:
				p.Normals = v
			case 6:
				p.Normal = v
			case 10:
				p.Remap = v
			}
		case 5:
			v, err := d.ReadPackedUvarint()
			if err != nil {
				return err
			}
			p.Indices = v
		default:
			if err := d.SkipField(fieldNum, wireType); err != nil {
				return err
			}
		}
	}
	return nil
}

// FromModel achata um modelo compilado para o fio.
func FromModel(m *model.CompiledModel) []Primitive {
	if m == nil {
		return nil
	}
	out := make([]Primitive, 0, len(m.Primitives))
	for _, src := range m.Primitives {
		p := Primitive{
			Kind:      uint32(src.Kind),
			Positions: make([]float32, 0, len(src.Vertices)*3),
			UVs:       make([]float32, 0, len(src.Vertices)*2),
			Normals:   make([]float32, 0, len(src.Vertices)*3),
			Indices:   make([]uint32, len(src.Indices)),
			Page:      int32(src.Texture.Page),
			CullKind:  uint32(src.CullRule.Kind),
			CullDir:   uint32(src.CullRule.Direction),
			Remap: []float32{
				src.Texture.Remap.Offset[0], src.Texture.Remap.Offset[1],
				src.Texture.Remap.Scale[0], src.Texture.Remap.Scale[1],
			},
		}
		for _, v := range src.Vertices {
			p.Positions = append(p.Positions, v.Position[:]...)
			p.UVs = append(p.UVs, v.UV[:]...)
			p.Normals = append(p.Normals, v.Normal[:]...)
		}
		for i, idx := range src.Indices {
			p.Indices[i] = uint32(idx)
		}
		if src.Kind == model.KindQuad {
			p.Normal = src.Normal[:]
		}
		out = append(out, p)
	}
	return out
}

// ToModel reconstrói o modelo recebido. As referências de textura voltam
// no estágio final, sem recorte.
func (m *ResolveResponse) ToModel() (*model.CompiledModel, error) {
	if m.ModelIndex == 0 && len(m.Primitives) == 0 {
		return nil, nil
	}
	out := &model.CompiledModel{Transparent: m.Transparent}
	for i, p := range m.Primitives {
		n := len(p.Positions) / 3
		if len(p.Positions) != n*3 || len(p.UVs) != n*2 || len(p.Normals) != n*3 {
			return nil, fmt.Errorf("primitiva %d: buffers de vértices inconsistentes", i)
		}
		prim := model.Primitive{
			Kind:     model.PrimitiveKind(p.Kind),
			Vertices: make([]model.Vertex, n),
			Indices:  make([]uint16, len(p.Indices)),
			CullRule: model.CullRule{Kind: model.CullKind(p.CullKind), Direction: model.Direction(p.CullDir)},
			Texture:  model.TextureRef{Stage: model.StageFinal, Page: int(p.Page), Remap: model.Identity},
		}
		for v := 0; v < n; v++ {
			prim.Vertices[v] = model.Vertex{
				Position: mgl32.Vec3{p.Positions[v*3], p.Positions[v*3+1], p.Positions[v*3+2]},
				UV:       mgl32.Vec2{p.UVs[v*2], p.UVs[v*2+1]},
				Normal:   mgl32.Vec3{p.Normals[v*3], p.Normals[v*3+1], p.Normals[v*3+2]},
			}
		}
		for j, idx := range p.Indices {
			if idx >= uint32(n) {
				return nil, fmt.Errorf("primitiva %d: índice %d fora do intervalo", i, idx)
			}
			prim.Indices[j] = uint16(idx)
		}
		if len(p.Normal) == 3 {
			prim.Normal = mgl32.Vec3{p.Normal[0], p.Normal[1], p.Normal[2]}
		}
		if len(p.Remap) == 4 {
			prim.Texture.Remap = model.UVRemap{
				Offset: mgl32.Vec2{p.Remap[0], p.Remap[1]},
				Scale:  mgl32.Vec2{p.Remap[2], p.Remap[3]},
			}
		}
		out.Primitives = append(out.Primitives, prim)
	}
	return out, nil
}
