package camera

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

// Limites da elevação, em radianos (quase topo até quase horizonte).
const (
	minElevation = -89.0 * math.Pi / 180
	maxElevation = -5.0 * math.Pi / 180
)

// Orbit gira em volta de um alvo fixo, com zoom pela roda do mouse.
type Orbit struct {
	Target mgl32.Vec3

	AngleY float32 // azimute (radianos)
	AngleX float32 // elevação (radianos, negativa olhando de cima)
	Zoom   float32

	MinZoom     float32
	MaxZoom     float32
	RotateSpeed float32
	ZoomSpeed   float32
}

// New cria uma câmera isométrica olhando para target.
func New(target mgl32.Vec3) *Orbit {
	return &Orbit{
		Target:      target,
		AngleY:      45.0 * math.Pi / 180,
		AngleX:      -30.0 * math.Pi / 180,
		Zoom:        4.0,
		MinZoom:     1.5,
		MaxZoom:     40.0,
		RotateSpeed: 2.0,
		ZoomSpeed:   0.5,
	}
}

// Position converte os ângulos e o zoom em posição no mundo.
// Y é "cima", como no raylib.
func (c *Orbit) Position() mgl32.Vec3 {
	cosX := float32(math.Cos(float64(c.AngleX)))
	sinX := float32(math.Sin(float64(c.AngleX)))
	cosY := float32(math.Cos(float64(c.AngleY)))
	sinY := float32(math.Sin(float64(c.AngleY)))

	offset := mgl32.Vec3{
		c.Zoom * cosX * sinY,
		c.Zoom * -sinX,
		c.Zoom * cosX * cosY,
	}
	return c.Target.Add(offset)
}

// Rotate aplica um delta de mouse, limitando a elevação.
func (c *Orbit) Rotate(dx, dy float32) {
	c.AngleY -= dx * c.RotateSpeed * 0.005
	c.AngleX -= dy * c.RotateSpeed * 0.005
	c.AngleX = mgl32.Clamp(c.AngleX, minElevation, maxElevation)
}

// ZoomBy aproxima (wheel > 0) ou afasta a câmera.
func (c *Orbit) ZoomBy(wheel float32) {
	c.Zoom = mgl32.Clamp(c.Zoom-wheel*c.ZoomSpeed, c.MinZoom, c.MaxZoom)
}

// HandleInput lê mouse (botão esquerdo gira, roda aproxima).
func (c *Orbit) HandleInput() {
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		c.ZoomBy(wheel)
	}
	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		delta := rl.GetMouseDelta()
		c.Rotate(delta.X, delta.Y)
	}
}

// Camera3D monta a câmera do raylib.
func (c *Orbit) Camera3D() rl.Camera3D {
	pos := c.Position()
	return rl.Camera3D{
		Position:   rl.NewVector3(pos[0], pos[1], pos[2]),
		Target:     rl.NewVector3(c.Target[0], c.Target[1], c.Target[2]),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       45.0,
		Projection: rl.CameraPerspective,
	}
}
