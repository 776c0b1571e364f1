package query

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pw "google.golang.org/protobuf/encoding/protowire"

	"FortressModels/shared/model"
)

func sampleModel() *model.CompiledModel {
	return &model.CompiledModel{
		Transparent: true,
		Primitives: []model.Primitive{
			{
				Kind: model.KindQuad,
				Vertices: []model.Vertex{
					{Position: mgl32.Vec3{-0.5, 0.5, 0.5}, UV: mgl32.Vec2{0, 0}, Normal: mgl32.Vec3{0, 1, 0}},
					{Position: mgl32.Vec3{0.5, 0.5, 0.5}, UV: mgl32.Vec2{0.25, 0}, Normal: mgl32.Vec3{0, 1, 0}},
					{Position: mgl32.Vec3{-0.5, 0.5, -0.5}, UV: mgl32.Vec2{0, 0.25}, Normal: mgl32.Vec3{0, 1, 0}},
					{Position: mgl32.Vec3{0.5, 0.5, -0.5}, UV: mgl32.Vec2{0.25, 0.25}, Normal: mgl32.Vec3{0, 1, 0}},
				},
				Indices:  []uint16{0, 2, 1, 1, 2, 3},
				Normal:   mgl32.Vec3{0, 1, 0},
				CullRule: model.WhenHidden(model.Up),
				Texture: model.TextureRef{
					Stage: model.StageFinal,
					Page:  1,
					Remap: model.UVRemap{Offset: mgl32.Vec2{0, 0}, Scale: mgl32.Vec2{0.25, 0.25}},
				},
			},
			{
				Kind: model.KindMesh,
				Vertices: []model.Vertex{
					{Position: mgl32.Vec3{0, 0, 0}},
					{Position: mgl32.Vec3{1, 0, 0}},
					{Position: mgl32.Vec3{0, 1, 0}},
				},
				Indices: []uint16{0, 1, 2},
				Texture: model.TextureRef{Stage: model.StageFinal, Remap: model.Identity},
			},
		},
	}
}

func TestResolveRequestRoundTrip(t *testing.T) {
	req := ResolveRequest{ID: 7, Shape: 3, Path: "INORGANIC:GRANITE"}
	var got ResolveRequest
	require.NoError(t, got.Unmarshal(req.Marshal()))
	assert.Equal(t, req, got)

	// Classe negativa (NO_SHAPE = -1 em alguns protocolos) sobrevive ao varint.
	req = ResolveRequest{Shape: -1}
	got = ResolveRequest{}
	require.NoError(t, got.Unmarshal(req.Marshal()))
	assert.Equal(t, int32(-1), got.Shape)
}

func TestResolveResponseCarriesModel(t *testing.T) {
	m := sampleModel()
	resp := ResolveResponse{ID: 3, Match: 1, ModelIndex: 4, Transparent: m.Transparent, Primitives: FromModel(m)}

	var env Envelope
	require.NoError(t, env.Unmarshal(Wrap(EnvelopeResolveResponse, &resp)))
	assert.Equal(t, EnvelopeResolveResponse, env.Type)

	var got ResolveResponse
	require.NoError(t, got.Unmarshal(env.Payload))
	assert.Equal(t, uint32(3), got.ID)
	assert.Equal(t, int32(1), got.Match)
	assert.Equal(t, uint32(4), got.ModelIndex)

	back, err := got.ToModel()
	require.NoError(t, err)
	if diff := cmp.Diff(m, back); diff != "" {
		t.Errorf("modelo diferente após o fio (-want +got):\n%s", diff)
	}
}

func TestResolveResponseWithoutModel(t *testing.T) {
	resp := ResolveResponse{ID: 1, Match: 2, Error: "classe de forma inválida 99"}
	var got ResolveResponse
	require.NoError(t, got.Unmarshal(resp.Marshal()))
	assert.Equal(t, resp, got)

	m, err := got.ToModel()
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestToModelRejectsBadBuffers(t *testing.T) {
	resp := ResolveResponse{ModelIndex: 1, Primitives: []Primitive{{
		Positions: []float32{0, 0, 0},
		UVs:       []float32{0},
		Normals:   []float32{0, 0, 0},
	}}}
	_, err := resp.ToModel()
	assert.Error(t, err)

	resp.Primitives[0].UVs = []float32{0, 0}
	resp.Primitives[0].Indices = []uint32{0, 1, 0}
	_, err = resp.ToModel()
	assert.Error(t, err)
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	data := (&ResolveRequest{ID: 9, Path: "WOOD"}).Marshal()
	data = pw.AppendTag(data, 40, pw.BytesType)
	data = pw.AppendString(data, "extra")
	data = pw.AppendTag(data, 41, pw.Fixed64Type)
	data = pw.AppendFixed64(data, 12345)

	var got ResolveRequest
	require.NoError(t, got.Unmarshal(data))
	assert.Equal(t, ResolveRequest{ID: 9, Path: "WOOD"}, got)
}

func TestTruncatedMessage(t *testing.T) {
	data := (&ServerStatus{Message: "olá", Models: 3}).Marshal()
	var s ServerStatus
	assert.Error(t, s.Unmarshal(data[:len(data)-3]))

	var full ServerStatus
	require.NoError(t, full.Unmarshal(data))
	assert.Equal(t, ServerStatus{Message: "olá", Models: 3}, full)
}

func TestPingEnvelopeHasNoPayload(t *testing.T) {
	var env Envelope
	require.NoError(t, env.Unmarshal(Wrap(EnvelopePing, nil)))
	assert.Equal(t, EnvelopePing, env.Type)
	assert.Empty(t, env.Payload)
	assert.Equal(t, "PING", env.Type.String())
}
