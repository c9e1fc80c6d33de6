package content

import (
	"ascension-server/internal/domain"
	"ascension-server/pkg/logger"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// fileSchema - формат одного yaml-файла. Любая секция может отсутствовать.
type fileSchema struct {
	Characters []CharacterDef `yaml:"characters"`
	Enemies    []EnemyDef     `yaml:"enemies"`
	Equipment  []EquipmentDef `yaml:"equipment"`
	Echoes     []EchoDef      `yaml:"echoes"`
	Resonances []ResonanceDef `yaml:"resonances"`
}

// YAMLCatalog - каталог, собранный из yaml-файлов
type YAMLCatalog struct {
	characters map[string]CharacterDef
	enemies    map[string]EnemyDef
	equipment  map[string]EquipmentDef
	echoes     map[string]EchoDef
	resonances map[string]ResonanceDef

	// кеш отсортированных списков
	echoList      []EchoDef
	enemyList     []EnemyDef
	resonanceList []ResonanceDef
}

var _ Catalog = (*YAMLCatalog)(nil)

// LoadBuiltin читает каталог, вшитый в бинарник
func LoadBuiltin() (*YAMLCatalog, error) {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// LoadDir читает все *.yaml из каталога на диске. Пустой dir - встроенный каталог.
func LoadDir(dir string) (*YAMLCatalog, error) {
	if dir == "" {
		return LoadBuiltin()
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS читает все *.yaml / *.yml из корня fsys в алфавитном порядке.
// Более поздний файл перекрывает записи с тем же id.
func LoadFS(fsys fs.FS) (*YAMLCatalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && isYAML(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	c := newYAMLCatalog()
	for _, name := range names {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if err := c.merge(name, b); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.index()

	logger.Log.WithFields(logrus.Fields{
		"component":  "content",
		"files":      len(names),
		"characters": len(c.characters),
		"enemies":    len(c.enemies),
		"echoes":     len(c.echoes),
		"resonances": len(c.resonances),
	}).Info("Content catalog loaded.")
	return c, nil
}

// Parse строит каталог из одного yaml-документа (для тестов и инструментов)
func Parse(b []byte) (*YAMLCatalog, error) {
	c := newYAMLCatalog()
	if err := c.merge("inline", b); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.index()
	return c, nil
}

func newYAMLCatalog() *YAMLCatalog {
	return &YAMLCatalog{
		characters: make(map[string]CharacterDef),
		enemies:    make(map[string]EnemyDef),
		equipment:  make(map[string]EquipmentDef),
		echoes:     make(map[string]EchoDef),
		resonances: make(map[string]ResonanceDef),
	}
}

func (c *YAMLCatalog) merge(name string, b []byte) error {
	var f fileSchema
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	for _, d := range f.Characters {
		c.characters[d.ID] = d
	}
	for _, d := range f.Enemies {
		c.enemies[d.ID] = d
	}
	for _, d := range f.Equipment {
		c.equipment[d.ID] = d
	}
	for _, d := range f.Echoes {
		c.echoes[d.ID] = d
	}
	for _, d := range f.Resonances {
		c.resonances[d.ID] = d
	}
	return nil
}

// validate собирает ВСЕ ошибки таблиц разом
func (c *YAMLCatalog) validate() error {
	var errs error

	checkMods := func(owner string, mods []StatMod) {
		for _, m := range mods {
			if !domain.KnownStat(m.Stat) {
				errs = multierr.Append(errs, fmt.Errorf("%s: unknown stat %q", owner, m.Stat))
			}
		}
	}

	for _, id := range sortedKeys(c.characters) {
		d := c.characters[id]
		if id == "" {
			errs = multierr.Append(errs, fmt.Errorf("character with empty id"))
		}
		if d.Stats.MaxHP <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("character %q: max_hp must be positive", id))
		}
		for _, eq := range d.Equipment {
			if _, ok := c.equipment[eq]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("character %q: unknown equipment %q", id, eq))
			}
		}
	}
	for _, id := range sortedKeys(c.enemies) {
		d := c.enemies[id]
		if _, ok := domain.ParseArchetype(d.Archetype); !ok {
			errs = multierr.Append(errs, fmt.Errorf("enemy %q: unknown archetype %q", id, d.Archetype))
		}
		for _, r := range d.Rooms {
			if k := domain.ParseRoomKind(r); k == domain.RoomUnknown || !k.HasBattle() {
				errs = multierr.Append(errs, fmt.Errorf("enemy %q: bad room %q", id, r))
			}
		}
		for _, s := range d.Behavior.Cycle {
			if _, ok := domain.ParseEnemyMove(s); !ok {
				errs = multierr.Append(errs, fmt.Errorf("enemy %q: unknown move %q", id, s))
			}
		}
	}
	for _, id := range sortedKeys(c.equipment) {
		checkMods("equipment "+id, c.equipment[id].Mods)
	}
	for _, id := range sortedKeys(c.echoes) {
		d := c.echoes[id]
		if d.PathID == "" {
			errs = multierr.Append(errs, fmt.Errorf("echo %q: empty path", id))
		}
		if !d.Rarity.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("echo %q: unknown rarity %q", id, d.Rarity))
		}
		if id == domain.RestOptionID {
			errs = multierr.Append(errs, fmt.Errorf("echo id %q is reserved", id))
		}
		checkMods("echo "+id, d.Mods)
	}
	for _, id := range sortedKeys(c.resonances) {
		d := c.resonances[id]
		if d.OriginPathID == "" {
			errs = multierr.Append(errs, fmt.Errorf("resonance %q: empty origin path", id))
		}
		for _, u := range d.Upgrades {
			if !domain.KnownStat(u.Stat) {
				errs = multierr.Append(errs, fmt.Errorf("resonance %q upgrade %q: unknown stat %q", id, u.ID, u.Stat))
			}
			if u.HPCostPct < 0 || u.HPCostPct >= 100 {
				errs = multierr.Append(errs, fmt.Errorf("resonance %q upgrade %q: hp cost %.0f%% out of range", id, u.ID, u.HPCostPct))
			}
		}
	}
	if errs != nil {
		return fmt.Errorf("content catalog invalid: %w", errs)
	}
	return nil
}

func (c *YAMLCatalog) index() {
	c.echoList = c.echoList[:0]
	for _, id := range sortedKeys(c.echoes) {
		c.echoList = append(c.echoList, c.echoes[id])
	}
	c.enemyList = c.enemyList[:0]
	for _, id := range sortedKeys(c.enemies) {
		c.enemyList = append(c.enemyList, c.enemies[id])
	}
	c.resonanceList = c.resonanceList[:0]
	for _, id := range sortedKeys(c.resonances) {
		c.resonanceList = append(c.resonanceList, c.resonances[id])
	}
}

func (c *YAMLCatalog) Character(id string) (CharacterDef, bool) {
	d, ok := c.characters[id]
	return d, ok
}

func (c *YAMLCatalog) Enemy(id string) (EnemyDef, bool) {
	d, ok := c.enemies[id]
	return d, ok
}

func (c *YAMLCatalog) Equipment(id string) (EquipmentDef, bool) {
	d, ok := c.equipment[id]
	return d, ok
}

func (c *YAMLCatalog) Echo(id string) (EchoDef, bool) {
	d, ok := c.echoes[id]
	return d, ok
}

func (c *YAMLCatalog) Resonance(id string) (ResonanceDef, bool) {
	d, ok := c.resonances[id]
	return d, ok
}

func (c *YAMLCatalog) Echoes() []EchoDef { return c.echoList }

func (c *YAMLCatalog) Enemies() []EnemyDef { return c.enemyList }

func (c *YAMLCatalog) Resonances() []ResonanceDef { return c.resonanceList }

// CharacterIDs - отсортированные id персонажей (для меню и тестов)
func (c *YAMLCatalog) CharacterIDs() []string { return sortedKeys(c.characters) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// isYAML - расширение файла каталога
func isYAML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
