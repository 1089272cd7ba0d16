package entity

import (
	"iter"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/microcube/internal/colors"
	"github.com/annel0/microcube/internal/logging"
	"github.com/annel0/microcube/internal/vec"
	"github.com/annel0/microcube/internal/world/analysis"
)

// WorldAPI узкий интерфейс уровня, который нужен игроку для запросов об опорах.
type WorldAPI interface {
	// HighestBarrierBelow возвращает позицию самого высокого барьера ниже height
	// в пределах единицы по XZ от точки (x, z).
	HighestBarrierBelow(x, z, height float32) (mgl32.Vec3, bool)

	// BarrierPositions перечисляет позиции всех барьеров. Последовательность ленивая
	// и перезапускаемая.
	BarrierPositions() iter.Seq[mgl32.Vec3]
}

// State состояние игрока
type State uint8

const (
	Standing State = iota + 1
	Moving
	Falling
)

// String возвращает имя состояния
func (s State) String() string {
	switch s {
	case Standing:
		return "Standing"
	case Moving:
		return "Moving"
	case Falling:
		return "Falling"
	default:
		return "Unknown"
	}
}

// Config физические параметры игрока
type Config struct {
	Energy       float32 // Сила толчка из состояния покоя
	Mass         float32
	Gravity      float32
	RespawnDepth float32 // Глубина падения, после которой игрок возвращается на старт
}

// DefaultConfig параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		Energy:       1.5,
		Mass:         0.01,
		Gravity:      -9.81,
		RespawnDepth: 10,
	}
}

const (
	movingForceWhileMoving float32 = 0.5
	weightForce            float32 = 0.25
	hueSpeed               float32 = 240
)

// Player кубик игрока. Позиция всегда в узле сетки, текущий перекат
// описывается innerOffset.
type Player struct {
	position mgl32.Vec3
	start    mgl32.Vec3
	color    colors.RGBA
	model    mgl32.Mat4

	state   State
	barrier analysis.Barrier

	innerOffset float32
	velocity    float32

	isKeyPressed bool
	isReversed   bool
	changeAxis   bool
	isPushed     bool

	cfg      Config
	respawns int
}

// NewPlayer создаёт игрока в стартовой позиции. Игрок начинает в состоянии Falling.
func NewPlayer(start mgl32.Vec3, cfg Config) *Player {
	p := &Player{
		start:   start,
		color:   colors.Red,
		state:   Falling,
		barrier: analysis.Nothing,
		cfg:     cfg,
	}
	p.SetPosition(start)
	return p
}

// Update продвигает игрока на один тик
func (p *Player) Update(dt float32, world WorldAPI) {
	if world == nil {
		panic("entity: nil world")
	}

	p.velocity += p.velocity * (p.cfg.Mass * p.cfg.Gravity) * dt
	p.color = p.color.OffsetHue(p.cfg.Energy * hueSpeed * dt)

	if p.state == Falling {
		p.updateFalling(dt, world)
	} else {
		p.updateGrounded(dt, world)
	}

	p.isKeyPressed = false
	p.isPushed = false
}

func (p *Player) updateFalling(dt float32, world WorldAPI) {
	p.velocity -= dt
	p.innerOffset += p.velocity

	if p.innerOffset < -p.cfg.RespawnDepth {
		p.respawns++
		logging.Debug("🔁 Игрок упал за пределы уровня, возврат на старт %v", p.start)
		p.ProcessPosition(world, p.start)
	} else if highest, ok := world.HighestBarrierBelow(p.position.X(), p.position.Z(), p.position.Y()); ok {
		if p.OffsettedPosition().Y()-highest.Y() < 1 {
			p.ProcessPosition(world, mgl32.Vec3{p.position.X(), highest.Y() + 1, p.position.Z()})
		}
	}

	p.model = mgl32.Translate3D(p.position.X(), p.position.Y()+p.innerOffset, p.position.Z())
}

func (p *Player) updateGrounded(dt float32, world WorldAPI) {
	if p.innerOffset == 0 && p.state == Standing {
		p.barrier = analysis.GlobalBarrier(p.position, world.BarrierPositions(), p.isReversed, p.changeAxis)
	}

	if !p.isPushed && p.state == Standing && !vec.IsGridAligned(p.position) {
		r := vec.Round(p.position)
		p.ProcessPosition(world, mgl32.Vec3{r.X(), p.position.Y(), r.Z()})
	}

	movingForce := movingForceWhileMoving
	if p.velocity == 0 {
		movingForce = p.cfg.Energy
	}

	switch p.barrier {
	case analysis.Nothing, analysis.Step, analysis.Wall:
		if p.isKeyPressed {
			if p.isReversed {
				p.velocity += -movingForce * dt
			} else {
				p.velocity += movingForce * dt
			}
		}
		if p.innerOffset != 0 {
			p.velocity += p.weight() * dt
		}
	}

	previous := p.innerOffset
	p.innerOffset += p.velocity

	if p.state == Moving && vec.Sign(previous) != vec.Sign(p.innerOffset) {
		p.ProcessPosition(world, p.position)
	} else {
		if p.innerOffset != 0 {
			p.state = Moving
		}

		var critical float32 = 1
		if p.barrier == analysis.Step {
			critical = 2
		}
		if vec.Abs(p.innerOffset) > critical {
			p.ProcessPosition(world, p.NextPosition())
		}
	}

	p.updateModel()
}

// weight сила, тянущая кубик к центру клетки или помогающая закатиться на ступеньку
func (p *Player) weight() float32 {
	o := p.innerOffset
	sign := float32(vec.Sign(o))

	switch p.barrier {
	case analysis.Nothing:
		if vec.Abs(o) > 0.5 {
			return weightForce * sign
		}
		return -weightForce * sign
	case analysis.Step:
		if vec.Abs(o) < 1.5 {
			return -weightForce * sign
		}
		return weightForce * sign
	case analysis.Wall:
		return vec.CopySign(weightForce, -o)
	default:
		return 0
	}
}

// ProcessPosition фиксирует игрока в позиции и заново проверяет опору под ним.
func (p *Player) ProcessPosition(world WorldAPI, position mgl32.Vec3) {
	p.innerOffset = 0
	p.velocity = 0
	p.state = Standing

	p.SetPosition(position)

	highest, ok := world.HighestBarrierBelow(p.position.X(), p.position.Z(), p.position.Y())
	if !ok || p.OffsettedPosition().Y()-highest.Y() > 1 {
		p.state = Falling
	}
}

// Move задаёт намерение движения на текущий тик.
// Ось фиксируется только в узле сетки. В падении, в ловушке и перед
// неподходящим препятствием намерение игнорируется.
func (p *Player) Move(isReversed, changeAxis bool) {
	if p.state == Falling {
		return
	}

	p.isReversed = isReversed
	if p.innerOffset == 0 {
		p.changeAxis = changeAxis
	}

	if p.changeAxis == changeAxis && !p.barrier.Blocking() {
		p.isKeyPressed = true
	}
}

// Push сдвигает игрока платформой. Выравнивание по сетке в этом тике пропускается.
func (p *Player) Push(offset mgl32.Vec3) {
	p.SetPosition(p.position.Add(offset))
	p.isPushed = true
}

// SetPosition задаёт позицию и пересчитывает матрицу модели
func (p *Player) SetPosition(position mgl32.Vec3) {
	p.position = position
	p.updateModel()
}

func (p *Player) updateModel() {
	p.model = mgl32.Translate3D(p.position.X(), p.position.Y(), p.position.Z()).
		Mul4(CalculateMovingMatrix(p.innerOffset, p.barrier, p.changeAxis))
}

// OffsettedPosition позиция с учётом незавершённого переката или падения
func (p *Player) OffsettedPosition() mgl32.Vec3 {
	switch p.state {
	case Moving:
		if p.barrier == analysis.Nothing {
			var dx, dz float32 = 0, p.innerOffset
			if p.changeAxis {
				dx, dz = dz, dx
			}
			return p.position.Add(mgl32.Vec3{dx, 0, dz})
		}
		shift := CalculateMovingMatrix(p.innerOffset, p.barrier, p.changeAxis).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
		return p.position.Add(shift.Vec3())
	case Falling:
		return mgl32.Vec3{p.position.X(), p.position.Y() + p.innerOffset, p.position.Z()}
	}
	return p.position
}

// NextPosition клетка, в которой игрок окажется после завершения переката
func (p *Player) NextPosition() mgl32.Vec3 {
	if p.state != Moving || p.innerOffset == 0 {
		return p.position
	}

	var dx, dy, dz float32
	if p.barrier.Climbable() {
		dy = 1
	}
	if p.barrier != analysis.Wall {
		dz = vec.CopySign(1, p.innerOffset)
	}
	if p.changeAxis {
		dx, dz = dz, dx
	}
	return p.position.Add(mgl32.Vec3{dx, dy, dz})
}

// CalculateMovingMatrix матрица наклона кубика при перекате на offset.
// Кубик вращается вокруг ребра, выбранного по типу препятствия и знаку offset.
func CalculateMovingMatrix(offset float32, barrier analysis.Barrier, changeAxis bool) mgl32.Mat4 {
	ty, tz := float32(0.5), -vec.CopySign(0.5, offset)

	if barrier == analysis.Wall || barrier == analysis.Step {
		ty, tz = tz, -ty
		if offset < 0 {
			ty, tz = -ty, -tz
		}
	}

	m := mgl32.Translate3D(0, -ty, -tz).
		Mul4(mgl32.HomogRotate3DX(offset * (math.Pi / 2))).
		Mul4(mgl32.Translate3D(0, ty, tz))

	if changeAxis {
		m = mgl32.HomogRotate3DY(math.Pi / 2).Mul4(m)
	}
	return m
}

// InstanceData данные для инстанс-рендера: цвет, цвет верха, цвет рёбер,
// матрица модели и флаг рёбер.
func (p *Player) InstanceData() []float32 {
	data := make([]float32, 0, 26)
	rgb := p.color.RGB()
	data = append(data, rgb[:]...)
	data = append(data, rgb[:]...)
	data = append(data, 0, 0, 0)
	data = append(data, p.model[:]...)
	return append(data, 0)
}

func (p *Player) Position() mgl32.Vec3      { return p.position }
func (p *Player) StartPosition() mgl32.Vec3 { return p.start }
func (p *Player) State() State              { return p.state }
func (p *Player) Barrier() analysis.Barrier { return p.barrier }
func (p *Player) InnerOffset() float32      { return p.innerOffset }
func (p *Player) Velocity() float32         { return p.velocity }
func (p *Player) IsKeyPressed() bool        { return p.isKeyPressed }
func (p *Player) IsReversed() bool          { return p.isReversed }
func (p *Player) ChangeAxis() bool          { return p.changeAxis }
func (p *Player) Model() mgl32.Mat4         { return p.model }
func (p *Player) Color() colors.RGBA        { return p.color }
func (p *Player) Energy() float32           { return p.cfg.Energy }

// Respawns сколько раз игрок возвращался на старт
func (p *Player) Respawns() int { return p.respawns }

// SetEnergy меняет силу толчка
func (p *Player) SetEnergy(e float32) { p.cfg.Energy = e }

// SetStartPosition меняет точку возврата
func (p *Player) SetStartPosition(start mgl32.Vec3) { p.start = start }
