// Package levels загружает описания уровней из YAML.
package levels

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/annel0/microcube/internal/world"
	"github.com/annel0/microcube/internal/world/block"
	"github.com/annel0/microcube/internal/world/moving"
)

var (
	ErrUnknownBlockType = errors.New("неизвестный тип блока")
	ErrUnknownMoveQueue = errors.New("неизвестная очередь движения")
	ErrUnknownGenerator = errors.New("неизвестный генератор")
	ErrMissingQueue     = world.ErrMissingQueue
	ErrBadMovement      = errors.New("некорректный отрезок движения")
)

// Document YAML-представление уровня
type Document struct {
	Name       string          `yaml:"name"`
	Player     Point           `yaml:"player"`
	MoveQueues []QueueSpec     `yaml:"move_queues"`
	Blocks     []BlockSpec     `yaml:"blocks"`
	Generators []GeneratorSpec `yaml:"generators"`
}

type Point struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

func (p Point) Vec3() mgl32.Vec3 { return mgl32.Vec3{p.X, p.Y, p.Z} }

type QueueSpec struct {
	Name       string         `yaml:"name"`
	Repeatable bool           `yaml:"repeatable"`
	Active     bool           `yaml:"active"`
	Movements  []MovementSpec `yaml:"movements"`
}

type MovementSpec struct {
	X       float32 `yaml:"x"`
	Y       float32 `yaml:"y"`
	Z       float32 `yaml:"z"`
	Seconds float32 `yaml:"seconds"`
}

type BlockSpec struct {
	Type      string  `yaml:"type"`
	X         float32 `yaml:"x"`
	Y         float32 `yaml:"y"`
	Z         float32 `yaml:"z"`
	MoveQueue string  `yaml:"move_queue,omitempty"`
}

type GeneratorSpec struct {
	Type   string  `yaml:"type"`
	StartX float32 `yaml:"start_x,omitempty"`
	StartZ float32 `yaml:"start_z,omitempty"`
	EndX   float32 `yaml:"end_x,omitempty"`
	EndZ   float32 `yaml:"end_z,omitempty"`
	Height float32 `yaml:"height,omitempty"`
	X      float32 `yaml:"x,omitempty"`
	Y      float32 `yaml:"y,omitempty"`
	Z      float32 `yaml:"z,omitempty"`
}

// Content разобранный уровень. Blocks и MoveQueues это экземпляр, собранный
// при разборе; NewLevel каждый раз собирает новый.
type Content struct {
	Name          string
	StartPosition mgl32.Vec3
	Blocks        []world.Block
	MoveQueues    []*moving.MoveQueue

	doc Document
}

// Parse разбирает YAML уровня
func Parse(data []byte) (*Content, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ошибка разбора уровня: %w", err)
	}
	return FromDocument(doc)
}

// Load читает уровень из файла
func Load(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения уровня %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// FromDocument проверяет документ и собирает по нему уровень
func FromDocument(doc Document) (*Content, error) {
	blocks, queues, err := doc.build()
	if err != nil {
		return nil, err
	}
	return &Content{
		Name:          doc.Name,
		StartPosition: doc.Player.Vec3(),
		Blocks:        blocks,
		MoveQueues:    queues,
		doc:           doc,
	}, nil
}

// Document исходное описание уровня
func (c *Content) Document() Document { return c.doc }

// NewLevel собирает новый экземпляр уровня
func (c *Content) NewLevel(opts world.Options) (*world.Level, error) {
	blocks, queues, err := c.doc.build()
	if err != nil {
		return nil, err
	}
	return world.NewLevel(c.Name, blocks, queues, c.StartPosition, opts)
}

func (d Document) build() ([]world.Block, []*moving.MoveQueue, error) {
	queues := make([]*moving.MoveQueue, 0, len(d.MoveQueues))
	handles := make(map[string]moving.Handle, len(d.MoveQueues))

	for i, qs := range d.MoveQueues {
		movements := make([]*moving.Movement, 0, len(qs.Movements))
		for j, ms := range qs.Movements {
			if ms.Seconds <= 0 {
				return nil, nil, fmt.Errorf("очередь %q, отрезок %d: %w: seconds=%v", qs.Name, j, ErrBadMovement, ms.Seconds)
			}
			movements = append(movements, moving.NewMovement(ms.X, ms.Y, ms.Z, ms.Seconds))
		}
		handles[qs.Name] = moving.Handle(i)
		queues = append(queues, moving.NewMoveQueue(movements, qs.Repeatable, qs.Active))
	}

	var blocks []world.Block
	for i, bs := range d.Blocks {
		b, err := bs.build(handles)
		if err != nil {
			return nil, nil, fmt.Errorf("блок %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}

	for i, gs := range d.Generators {
		generated, err := gs.build()
		if err != nil {
			return nil, nil, fmt.Errorf("генератор %d: %w", i, err)
		}
		blocks = append(blocks, generated...)
	}

	return blocks, queues, nil
}

func (b BlockSpec) build(handles map[string]moving.Handle) (world.Block, error) {
	kind, ok := block.Lookup(b.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, b.Type)
	}

	queue := moving.NoQueue
	if b.MoveQueue != "" {
		h, ok := handles[b.MoveQueue]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMoveQueue, b.MoveQueue)
		}
		queue = h
	}

	pos := mgl32.Vec3{b.X, b.Y, b.Z}
	switch kind {
	case block.GroundKind:
		return world.NewGround(pos, world.GroundColor, queue), nil
	case block.FallingPlateKind:
		return world.NewFallingPlate(pos, world.PlateColor), nil
	case block.FinishKind:
		return world.NewFinish(pos, world.GroundColor, true), nil
	case block.PrismKind:
		return world.NewPrism(pos), nil
	case block.TriggerButtonKind:
		if !queue.Valid() {
			return nil, fmt.Errorf("кнопка %v: %w", pos, ErrMissingQueue)
		}
		return world.NewTriggerButton(pos, world.ButtonColor, queue), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, b.Type)
}

func (g GeneratorSpec) build() ([]world.Block, error) {
	switch g.Type {
	case "ground-plate":
		plane := world.GeneratePlane(mgl32.Vec2{g.StartX, g.StartZ}, mgl32.Vec2{g.EndX, g.EndZ}, g.Height, world.GroundColor)
		out := make([]world.Block, 0, len(plane))
		for _, b := range plane {
			out = append(out, b)
		}
		return out, nil
	case "finish-plate":
		finish := world.GenerateFinish(mgl32.Vec3{g.X, g.Y, g.Z}, world.GroundColor)
		out := make([]world.Block, 0, len(finish))
		for _, b := range finish {
			out = append(out, b)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, g.Type)
}

// Marshal сериализует документ в YAML
func Marshal(doc Document) ([]byte, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации уровня: %w", err)
	}
	return data, nil
}
