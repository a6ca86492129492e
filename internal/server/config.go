package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"BreachProtocol/internal/game"
)

// Config is everything the server needs to start.
type Config struct {
	Addr        string `validate:"required"`
	DataDir     string `validate:"required_without=InMemory"`
	InMemory    bool
	CatalogPath string // empty means the embedded campaign
	ConfigPath  string
	WatchConfig bool
	SendBuffer  int             `validate:"gte=0"` // outbound frames queued per connection
	Overrides   TuningOverrides // flag overrides, applied last
	Logger      *zap.Logger     `validate:"-"`
}

// DefaultConfig returns a durable server on :8080.
func DefaultConfig() Config {
	return Config{
		Addr:       ":8080",
		DataDir:    "data",
		ConfigPath: "configs/breach.yaml",
		SendBuffer: 256,
	}
}

var validate = validator.New()

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	return nil
}

// TuningOverrides are optional replacements for game.Tuning fields. The same
// shape is read from the tuning file and filled from command line flags.
type TuningOverrides struct {
	StartingCredits      *float64       `yaml:"startingCredits"`
	TickInterval         *time.Duration `yaml:"tickInterval"`
	FeedbackDelay        *time.Duration `yaml:"feedbackDelay"`
	BossStageDelay       *time.Duration `yaml:"bossStageDelay"`
	ReturnDelay          *time.Duration `yaml:"returnDelay"`
	RevealStep           *time.Duration `yaml:"revealStep"`
	TimedInputInterval   *time.Duration `yaml:"timedInputInterval"`
	TimedInputDecrement  *float64       `yaml:"timedInputDecrement"`
	PuzzleSuccessScore   *float64       `yaml:"puzzleSuccessScore"`
	PuzzleFailTrace      *float64       `yaml:"puzzleFailTrace"`
	BossPuzzleFailTrace  *float64       `yaml:"bossPuzzleFailTrace"`
	WarnHigh             *float64       `yaml:"warnHigh"`
	WarnCritical         *float64       `yaml:"warnCritical"`
	AmbientChatterChance *float64       `yaml:"ambientChatterChance"`
	AmbientHackChance    *float64       `yaml:"ambientHackChance"`
	AutoSave             *bool          `yaml:"autoSave"`
}

// configFile is the on-disk server config. Every field is optional.
type configFile struct {
	Addr    *string          `yaml:"addr"`
	DataDir *string          `yaml:"dataDir"`
	Catalog *string          `yaml:"catalog"`
	Tuning  *TuningOverrides `yaml:"tuning"`
}

func readConfigFile(path string) (*configFile, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %q: %w", cleanPath, err)
	}
	var f configFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", cleanPath, err)
	}
	return &f, nil
}

// LoadConfigFile overlays the addr, dataDir and catalog entries of the file
// at cfg.ConfigPath onto cfg. Flags the caller marked as explicit win.
func LoadConfigFile(cfg Config, explicit map[string]bool) (Config, error) {
	if cfg.ConfigPath == "" {
		return cfg, nil
	}
	f, err := readConfigFile(cfg.ConfigPath)
	if err != nil || f == nil {
		return cfg, err
	}
	if f.Addr != nil && !explicit["addr"] {
		cfg.Addr = *f.Addr
	}
	if f.DataDir != nil && !explicit["data-dir"] {
		cfg.DataDir = *f.DataDir
	}
	if f.Catalog != nil && !explicit["catalog"] {
		cfg.CatalogPath = *f.Catalog
	}
	return cfg, nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Apply layers the set fields over base and sanitizes the result.
func (o TuningOverrides) Apply(base game.Tuning) game.Tuning {
	setIf(&base.StartingCredits, o.StartingCredits)
	setIf(&base.TickInterval, o.TickInterval)
	setIf(&base.FeedbackDelay, o.FeedbackDelay)
	setIf(&base.BossStageDelay, o.BossStageDelay)
	setIf(&base.ReturnDelay, o.ReturnDelay)
	setIf(&base.RevealStep, o.RevealStep)
	setIf(&base.TimedInputInterval, o.TimedInputInterval)
	setIf(&base.TimedInputDecrement, o.TimedInputDecrement)
	setIf(&base.PuzzleSuccessScore, o.PuzzleSuccessScore)
	setIf(&base.PuzzleFailTrace, o.PuzzleFailTrace)
	setIf(&base.BossPuzzleFailTrace, o.BossPuzzleFailTrace)
	setIf(&base.WarnHigh, o.WarnHigh)
	setIf(&base.WarnCritical, o.WarnCritical)
	setIf(&base.AmbientChatterChance, o.AmbientChatterChance)
	setIf(&base.AmbientHackChance, o.AmbientHackChance)
	setIf(&base.AutoSave, o.AutoSave)
	return game.SanitizeTuning(base)
}

// loadTuningFromFile overlays the tuning section of the config file at path
// on base. A missing file is not an error.
func loadTuningFromFile(path string, base game.Tuning) (game.Tuning, error) {
	if path == "" {
		return game.SanitizeTuning(base), nil
	}
	f, err := readConfigFile(path)
	if err != nil {
		return game.SanitizeTuning(base), err
	}
	if f == nil || f.Tuning == nil {
		return game.SanitizeTuning(base), nil
	}
	return f.Tuning.Apply(base), nil
}

// ResolveTuning is the defaults, then the config file, then the overrides.
// A bad file is logged and skipped.
func ResolveTuning(cfg Config, log *zap.Logger) game.Tuning {
	t, err := loadTuningFromFile(cfg.ConfigPath, game.DefaultTuning())
	if err != nil {
		log.Warn("tuning file ignored, using defaults", zap.Error(err))
	}
	return cfg.Overrides.Apply(t)
}
