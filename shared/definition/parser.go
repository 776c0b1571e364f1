// Package definition lê os arquivos .hcl que descrevem os modelos de material.
package definition

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"FortressModels/shared/model"
)

// Extension é a extensão dos arquivos de definição.
const Extension = ".hcl"

// LoadError indica falha de leitura ou sintaxe em um arquivo de definição.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("falha ao carregar definição %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

var fileSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "transparent"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "params"},
		{Type: "inherit", LabelNames: []string{"target"}},
		{Type: "face", LabelNames: []string{"direction"}},
		{Type: "mesh"},
		{Type: "mesh_import", LabelNames: []string{"path"}},
	},
}

var faceSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "size"},
		{Name: "offset"},
		{Name: "rotation"},
		{Name: "texture", Required: true},
		{Name: "clip"},
		{Name: "cull"},
	},
}

var meshSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "vertices", Required: true},
		{Name: "uvs", Required: true},
		{Name: "normals"},
		{Name: "indices", Required: true},
		{Name: "texture", Required: true},
		{Name: "clip"},
		{Name: "cull"},
	},
}

var meshImportSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "texture", Required: true},
		{Name: "clip"},
		{Name: "cull"},
	},
}

// Parse converte o conteúdo de um arquivo em RawDefinition.
// key é o caminho do arquivo relativo à raiz de modelos, sem extensão.
func Parse(src []byte, filename, key string) (*model.RawDefinition, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, &LoadError{File: filename, Err: diags}
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, &LoadError{File: filename, Err: diags}
	}

	def := &model.RawDefinition{Key: key, File: filename}

	if attr, ok := content.Attributes["transparent"]; ok {
		var transparent bool
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &transparent); diags.HasErrors() {
			return nil, &LoadError{File: filename, Err: diags}
		}
		def.Transparent = &transparent
	}

	// Content mantém os blocos na ordem do arquivo, independente do tipo.
	for _, block := range content.Blocks {
		d, err := parseBlock(block)
		if err != nil {
			return nil, &LoadError{File: filename, Err: err}
		}
		def.Directives = append(def.Directives, d)
	}
	return def, nil
}

func parseBlock(block *hcl.Block) (model.Directive, error) {
	switch block.Type {
	case "params":
		return parseParams(block)
	case "inherit":
		if block.Labels[0] == "" {
			return nil, rangeError(block.DefRange, "inherit sem destino")
		}
		return model.Inherit{Target: block.Labels[0]}, nil
	case "face":
		return parseFace(block)
	case "mesh":
		return parseMesh(block)
	case "mesh_import":
		return parseMeshImport(block)
	}
	return nil, rangeError(block.DefRange, "bloco desconhecido %q", block.Type)
}

func rangeError(r hcl.Range, format string, args ...any) error {
	return fmt.Errorf("%s: %s", r.String(), fmt.Sprintf(format, args...))
}

func parseParams(block *hcl.Block) (model.Directive, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	// JustAttributes devolve um mapa; a posição no arquivo define a ordem.
	list := make([]*hcl.Attribute, 0, len(attrs))
	for _, a := range attrs {
		list = append(list, a)
	}
	slices.SortFunc(list, func(a, b *hcl.Attribute) int {
		return a.Range.Start.Byte - b.Range.Start.Byte
	})

	params := model.Params{Entries: make([]model.Param, 0, len(list))}
	for _, a := range list {
		val, diags := a.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		str, err := convert.Convert(val, cty.String)
		if err != nil || str.IsNull() {
			return nil, rangeError(a.Range, "params.%s deve ser texto, recebido %s", a.Name, val.Type().FriendlyName())
		}
		params.Entries = append(params.Entries, model.Param{Name: a.Name, Expr: str.AsString()})
	}
	return params, nil
}

// attrs agrupa os atributos de um bloco para decodificação opcional.
type attrs struct {
	content *hcl.BodyContent
}

func (a attrs) decode(name string, target any) (bool, error) {
	attr, ok := a.content.Attributes[name]
	if !ok {
		return false, nil
	}
	if diags := gohcl.DecodeExpression(attr.Expr, nil, target); diags.HasErrors() {
		return true, diags
	}
	return true, nil
}

func (a attrs) rangeOf(name string) hcl.Range {
	if attr, ok := a.content.Attributes[name]; ok {
		return attr.Range
	}
	return a.content.MissingItemRange
}

func (a attrs) texture() (model.TextureBinding, error) {
	var tb model.TextureBinding
	if _, err := a.decode("texture", &tb.Name); err != nil {
		return tb, err
	}
	if tb.Name == "" {
		return tb, rangeError(a.rangeOf("texture"), "texture vazia")
	}

	var clip []uint32
	ok, err := a.decode("clip", &clip)
	if err != nil {
		return tb, err
	}
	if ok {
		if len(clip) != 4 {
			return tb, rangeError(a.rangeOf("clip"), "clip precisa de 4 valores (x, y, w, h), recebeu %d", len(clip))
		}
		tb.Clip = &model.Rect{X: clip[0], Y: clip[1], W: clip[2], H: clip[3]}
	}
	return tb, nil
}

func (a attrs) cull() (model.CullRule, error) {
	var s string
	if _, err := a.decode("cull", &s); err != nil {
		return model.Never, err
	}
	rule, err := model.ParseCullRule(s)
	if err != nil {
		return model.Never, rangeError(a.rangeOf("cull"), "%v", err)
	}
	return rule, nil
}

func parseFace(block *hcl.Block) (model.Directive, error) {
	content, diags := block.Body.Content(faceSchema)
	if diags.HasErrors() {
		return nil, diags
	}
	a := attrs{content}

	dir, err := model.ParseDirection(block.Labels[0])
	if err != nil {
		return nil, rangeError(block.LabelRanges[0], "%v", err)
	}
	face := model.Face{Direction: dir}

	var size []float32
	if ok, err := a.decode("size", &size); err != nil {
		return nil, err
	} else if ok {
		if len(size) != 2 {
			return nil, rangeError(a.rangeOf("size"), "size precisa de 2 valores")
		}
		face.Size = &mgl32.Vec2{size[0], size[1]}
	}

	var offset []float32
	if ok, err := a.decode("offset", &offset); err != nil {
		return nil, err
	} else if ok {
		if len(offset) != 3 {
			return nil, rangeError(a.rangeOf("offset"), "offset precisa de 3 valores")
		}
		face.Offset = &mgl32.Vec3{offset[0], offset[1], offset[2]}
	}

	var rotation float32
	if ok, err := a.decode("rotation", &rotation); err != nil {
		return nil, err
	} else if ok {
		if rotation < 0 || rotation >= 360 {
			return nil, rangeError(a.rangeOf("rotation"), "rotation fora de [0, 360): %g", rotation)
		}
		face.Rotation = &rotation
	}

	if face.Texture, err = a.texture(); err != nil {
		return nil, err
	}
	if face.CullRule, err = a.cull(); err != nil {
		return nil, err
	}
	return face, nil
}

func parseMesh(block *hcl.Block) (model.Directive, error) {
	content, diags := block.Body.Content(meshSchema)
	if diags.HasErrors() {
		return nil, diags
	}
	a := attrs{content}
	var mesh model.Mesh
	var err error

	var verts, normals [][]float32
	var uvs [][]float32
	var indices [][]uint16
	if _, err := a.decode("vertices", &verts); err != nil {
		return nil, err
	}
	if _, err := a.decode("uvs", &uvs); err != nil {
		return nil, err
	}
	hasNormals, err := a.decode("normals", &normals)
	if err != nil {
		return nil, err
	}
	if _, err := a.decode("indices", &indices); err != nil {
		return nil, err
	}

	if mesh.Vertices, err = toVec3(verts); err != nil {
		return nil, rangeError(a.rangeOf("vertices"), "%v", err)
	}
	if mesh.UVs, err = toVec2(uvs); err != nil {
		return nil, rangeError(a.rangeOf("uvs"), "%v", err)
	}
	if len(mesh.UVs) != len(mesh.Vertices) {
		return nil, rangeError(a.rangeOf("uvs"), "%d uvs para %d vértices", len(mesh.UVs), len(mesh.Vertices))
	}
	if hasNormals {
		if mesh.Normals, err = toVec3(normals); err != nil {
			return nil, rangeError(a.rangeOf("normals"), "%v", err)
		}
		if len(mesh.Normals) != len(mesh.Vertices) {
			return nil, rangeError(a.rangeOf("normals"), "%d normais para %d vértices", len(mesh.Normals), len(mesh.Vertices))
		}
	}

	for i, tri := range indices {
		if len(tri) != 3 {
			return nil, rangeError(a.rangeOf("indices"), "triângulo %d com %d índices", i, len(tri))
		}
		for _, idx := range tri {
			if int(idx) >= len(mesh.Vertices) {
				return nil, rangeError(a.rangeOf("indices"), "índice %d fora do intervalo (%d vértices)", idx, len(mesh.Vertices))
			}
		}
		mesh.Indices = append(mesh.Indices, [3]uint16{tri[0], tri[1], tri[2]})
	}

	if mesh.Texture, err = a.texture(); err != nil {
		return nil, err
	}
	if mesh.CullRule, err = a.cull(); err != nil {
		return nil, err
	}
	return mesh, nil
}

func parseMeshImport(block *hcl.Block) (model.Directive, error) {
	content, diags := block.Body.Content(meshImportSchema)
	if diags.HasErrors() {
		return nil, diags
	}
	a := attrs{content}
	if block.Labels[0] == "" {
		return nil, rangeError(block.LabelRanges[0], "mesh_import sem caminho")
	}

	mi := model.MeshImport{Path: block.Labels[0]}
	var err error
	if mi.Texture, err = a.texture(); err != nil {
		return nil, err
	}
	if mi.CullRule, err = a.cull(); err != nil {
		return nil, err
	}
	return mi, nil
}

var errComponents = errors.New("número de componentes incorreto")

func toVec3(in [][]float32) ([]mgl32.Vec3, error) {
	out := make([]mgl32.Vec3, len(in))
	for i, v := range in {
		if len(v) != 3 {
			return nil, fmt.Errorf("item %d: %w (esperado 3, recebido %d)", i, errComponents, len(v))
		}
		out[i] = mgl32.Vec3{v[0], v[1], v[2]}
	}
	return out, nil
}

func toVec2(in [][]float32) ([]mgl32.Vec2, error) {
	out := make([]mgl32.Vec2, len(in))
	for i, v := range in {
		if len(v) != 2 {
			return nil, fmt.Errorf("item %d: %w (esperado 2, recebido %d)", i, errComponents, len(v))
		}
		out[i] = mgl32.Vec2{v[0], v[1]}
	}
	return out, nil
}
