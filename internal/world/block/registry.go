// Package block описывает виды блоков уровня и их общие свойства.
package block

import (
	"fmt"
	"sync"
)

// Kind вид блока
type Kind uint16

// Виды блоков
const (
	UnknownKind Kind = iota
	GroundKind
	FallingPlateKind
	FinishKind
	PrismKind
	TriggerButtonKind
	PlayerKind
)

// MeshRef ссылка на общую геометрию вида блока. Задаётся рендерером.
type MeshRef string

// Стандартные меши
const (
	CubeMesh  MeshRef = "mesh/cube"
	PrismMesh MeshRef = "mesh/prism"
)

// Descriptor общие свойства вида блока
type Descriptor struct {
	Kind    Kind
	Name    string  // Имя в файлах уровней
	Barrier bool    // Является ли блок опорой по умолчанию
	Dynamic bool    // Обновляется ли блок каждый тик
	Mesh    MeshRef // Геометрия для инстанс-рендера
}

var (
	registry = make(map[Kind]Descriptor)
	byName   = make(map[string]Kind)
	mu       sync.RWMutex
)

func init() {
	Register(Descriptor{Kind: GroundKind, Name: "ground", Barrier: true, Dynamic: true, Mesh: CubeMesh})
	Register(Descriptor{Kind: FallingPlateKind, Name: "falling-plate", Barrier: true, Dynamic: true, Mesh: CubeMesh})
	Register(Descriptor{Kind: FinishKind, Name: "finish", Barrier: true, Dynamic: true, Mesh: CubeMesh})
	Register(Descriptor{Kind: PrismKind, Name: "prism", Dynamic: true, Mesh: PrismMesh})
	Register(Descriptor{Kind: TriggerButtonKind, Name: "trigger-button", Dynamic: true, Mesh: CubeMesh})
	Register(Descriptor{Kind: PlayerKind, Name: "player", Mesh: CubeMesh})
}

// Register добавляет или заменяет описание вида блока
func Register(d Descriptor) {
	mu.Lock()
	defer mu.Unlock()
	if old, ok := registry[d.Kind]; ok {
		delete(byName, old.Name)
	}
	registry[d.Kind] = d
	byName[d.Name] = d.Kind
}

// Get возвращает описание вида блока
func Get(kind Kind) (Descriptor, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := registry[kind]
	return d, ok
}

// Lookup ищет вид блока по имени из файла уровня
func Lookup(name string) (Kind, bool) {
	mu.RLock()
	defer mu.RUnlock()
	k, ok := byName[name]
	return k, ok
}

// SetMesh подменяет геометрию вида блока
func SetMesh(kind Kind, mesh MeshRef) error {
	mu.Lock()
	defer mu.Unlock()
	d, ok := registry[kind]
	if !ok {
		return fmt.Errorf("неизвестный вид блока %d", kind)
	}
	d.Mesh = mesh
	registry[kind] = d
	return nil
}

// String возвращает имя вида блока
func (k Kind) String() string {
	if d, ok := Get(k); ok {
		return d.Name
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}
