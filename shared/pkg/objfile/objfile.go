// Package objfile lê malhas Wavefront OBJ simplificadas para importação em
// modelos de material.
//
// Suporta apenas os registros v, vt, vn e f. Outros tipos (o, g, s, usemtl,
// mtllib...) são logados e ignorados sem falhar o arquivo.
// Formato: https://en.wikipedia.org/wiki/Wavefront_.obj_file
package objfile

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh contém os buffers deduplicados: cada combinação distinta de
// posição/UV/normal vira um único vértice.
type Mesh struct {
	Vertices []mgl32.Vec3
	UVs      []mgl32.Vec2
	Normals  []mgl32.Vec3
	Indices  []uint16
}

// Error descreve uma falha fatal de leitura.
type Error struct {
	Path string
	Line int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("erro ao carregar malha (%s:%d): %s: %v", e.Path, e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("erro ao carregar malha (%s:%d): %s", e.Path, e.Line, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

type decoder struct {
	path   string
	line   int
	logger *log.Logger

	rawVerts   []mgl32.Vec3
	rawUVs     []mgl32.Vec2
	rawNormals []mgl32.Vec3

	mesh  Mesh
	index map[vertexKey]uint16
}

type vertexKey struct {
	pos    mgl32.Vec3
	uv     mgl32.Vec2
	normal mgl32.Vec3
}

// Read decodifica um OBJ. path é usado apenas em mensagens; logger pode ser nil.
func Read(r io.Reader, path string, logger *log.Logger) (*Mesh, error) {
	if logger == nil {
		logger = log.Default()
	}
	dec := &decoder{
		path:   path,
		logger: logger,
		index:  make(map[vertexKey]uint16),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		dec.line++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := dec.parseLine(strings.Fields(line)); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Path: path, Line: dec.line, Msg: "falha de leitura", Err: err}
	}
	return &dec.mesh, nil
}

func (d *decoder) fail(msg string, err error) error {
	return &Error{Path: d.path, Line: d.line, Msg: msg, Err: err}
}

func (d *decoder) parseLine(fields []string) error {
	switch fields[0] {
	case "v":
		return d.parseVertex(fields[1:])
	case "vt":
		return d.parseUV(fields[1:])
	case "vn":
		return d.parseNormal(fields[1:])
	case "f":
		return d.parseFace(fields[1:])
	default:
		d.logger.Printf("[ObjFile] Tipo OBJ não suportado %q em %s:%d (ignorado)", fields[0], d.path, d.line)
		return nil
	}
}

func (d *decoder) floats(fields []string, min int) ([]float32, error) {
	if len(fields) < min {
		return nil, d.fail(fmt.Sprintf("esperados %d valores, encontrados %d", min, len(fields)), nil)
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, d.fail(fmt.Sprintf("número inválido %q", f), err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// v x y z [w]
func (d *decoder) parseVertex(fields []string) error {
	v, err := d.floats(fields, 3)
	if err != nil {
		return err
	}
	pos := mgl32.Vec3{v[0], v[1], v[2]}
	if len(v) > 3 {
		if v[3] == 0 {
			return d.fail("componente w igual a zero", nil)
		}
		pos = pos.Mul(1 / v[3])
	}
	d.rawVerts = append(d.rawVerts, pos)
	return nil
}

// vt u [v]
func (d *decoder) parseUV(fields []string) error {
	v, err := d.floats(fields, 1)
	if err != nil {
		return err
	}
	uv := mgl32.Vec2{v[0], 0}
	if len(v) > 1 {
		uv[1] = v[1]
	}
	d.rawUVs = append(d.rawUVs, uv)
	return nil
}

// vn x y z
func (d *decoder) parseNormal(fields []string) error {
	v, err := d.floats(fields, 3)
	if err != nil {
		return err
	}
	d.rawNormals = append(d.rawNormals, mgl32.Vec3{v[0], v[1], v[2]})
	return nil
}

// f a b c [d] onde cada item é v, v/vt, v//vn ou v/vt/vn (base 1).
func (d *decoder) parseFace(fields []string) error {
	if len(fields) < 3 || len(fields) > 4 {
		return d.fail(fmt.Sprintf("face com %d vértices (suportado: 3 ou 4)", len(fields)), nil)
	}
	idx := make([]uint16, len(fields))
	for i, f := range fields {
		v, err := d.vertexIndex(f)
		if err != nil {
			return err
		}
		idx[i] = v
	}

	d.mesh.Indices = append(d.mesh.Indices, idx[0], idx[1], idx[2])
	if len(idx) == 4 {
		// Segundo triângulo compartilha a diagonal a-c (a,c,d e não b,d,a):
		// mantém o winding do primeiro triângulo.
		d.mesh.Indices = append(d.mesh.Indices, idx[0], idx[2], idx[3])
	}
	return nil
}

func (d *decoder) vertexIndex(token string) (uint16, error) {
	parts := strings.Split(token, "/")
	if len(parts) > 3 {
		return 0, d.fail(fmt.Sprintf("referência de vértice inválida %q", token), nil)
	}

	var key vertexKey
	pos, err := d.resolve(parts[0], len(d.rawVerts))
	if err != nil {
		return 0, err
	}
	key.pos = d.rawVerts[pos]

	if len(parts) > 1 && parts[1] != "" {
		i, err := d.resolve(parts[1], len(d.rawUVs))
		if err != nil {
			return 0, err
		}
		key.uv = d.rawUVs[i]
	}
	if len(parts) > 2 && parts[2] != "" {
		i, err := d.resolve(parts[2], len(d.rawNormals))
		if err != nil {
			return 0, err
		}
		key.normal = d.rawNormals[i]
	}

	if existing, ok := d.index[key]; ok {
		return existing, nil
	}
	if len(d.mesh.Vertices) > math.MaxUint16 {
		return 0, d.fail("malha excede 65536 vértices", nil)
	}
	n := uint16(len(d.mesh.Vertices))
	d.mesh.Vertices = append(d.mesh.Vertices, key.pos)
	d.mesh.UVs = append(d.mesh.UVs, key.uv)
	d.mesh.Normals = append(d.mesh.Normals, key.normal)
	d.index[key] = n
	return n, nil
}

// resolve converte índice OBJ (base 1, negativos relativos ao fim) em base 0.
func (d *decoder) resolve(token string, count int) (int, error) {
	v, err := strconv.Atoi(token)
	if err != nil {
		return 0, d.fail(fmt.Sprintf("índice inválido %q", token), err)
	}
	if v < 0 {
		v = count + v + 1
	}
	if v < 1 || v > count {
		return 0, d.fail(fmt.Sprintf("índice %s fora do intervalo (1..%d)", token, count), nil)
	}
	return v - 1, nil
}
