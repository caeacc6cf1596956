// Package config loads conversion settings from JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/xrmotion/internal/datasets"
	"github.com/banshee-data/xrmotion/internal/motion"
	"github.com/banshee-data/xrmotion/internal/output"
)

// DefaultConfigPath is the path to the canonical conversion defaults file.
const DefaultConfigPath = "config/convert.defaults.json"

// Default values used when a field is absent from the config file.
const (
	DefaultMinFrames           = motion.DefaultMinFrames
	DefaultOutputFormat        = string(output.CSV)
	DefaultPrecision           = output.DefaultPrecision
	DefaultWorkers             = 1
	DefaultBeatSaberFPS        = 90.0
	DefaultEulerSequence       = string(motion.IntrinsicXYZ)
	DefaultQuaternionTolerance = 0.01
)

// ConvertConfig holds the settings of a conversion run. Every field is a
// pointer so a partial JSON file only overrides what it names; the Get*
// methods supply defaults for the rest.
type ConvertConfig struct {
	MinFrames            *int     `json:"min_frames,omitempty"`
	OutputFormat         *string  `json:"output_format,omitempty"`
	Precision            *int     `json:"precision,omitempty"`
	Workers              *int     `json:"workers,omitempty"`
	MaxUsers             *int     `json:"max_users,omitempty"`
	MaxRecordingsPerUser *int     `json:"max_recordings_per_user,omitempty"`
	BeatSaberFPS         *float64 `json:"beat_saber_fps,omitempty"`
	EulerSequence        *string  `json:"euler_sequence,omitempty"`
	WritePlots           *bool    `json:"write_plots,omitempty"`
	WriteReport          *bool    `json:"write_report,omitempty"`
	// QuaternionTolerance bounds |norm-1| before a recording is flagged.
	QuaternionTolerance *float64 `json:"quaternion_tolerance,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyConvertConfig returns a ConvertConfig with all fields unset.
func EmptyConvertConfig() *ConvertConfig {
	return &ConvertConfig{}
}

// DefaultConvertConfig returns a ConvertConfig with every field set to its default.
func DefaultConvertConfig() *ConvertConfig {
	return &ConvertConfig{
		MinFrames:            ptrInt(DefaultMinFrames),
		OutputFormat:         ptrString(DefaultOutputFormat),
		Precision:            ptrInt(DefaultPrecision),
		Workers:              ptrInt(DefaultWorkers),
		MaxUsers:             ptrInt(0),
		MaxRecordingsPerUser: ptrInt(0),
		BeatSaberFPS:         ptrFloat64(DefaultBeatSaberFPS),
		EulerSequence:        ptrString(DefaultEulerSequence),
		WritePlots:           ptrBool(false),
		WriteReport:          ptrBool(false),
		QuaternionTolerance:  ptrFloat64(DefaultQuaternionTolerance),
	}
}

// LoadConvertConfig loads a ConvertConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
// Fields omitted from the file fall back to their defaults.
func LoadConvertConfig(path string) (*ConvertConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConvertConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching from the
// current directory up to the repository root. Intended for test setup.
func MustLoadDefaultConfig() *ConvertConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadConvertConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ConvertConfig) Validate() error {
	if c.MinFrames != nil && *c.MinFrames < 1 {
		return fmt.Errorf("min_frames must be at least 1, got %d", *c.MinFrames)
	}
	if c.OutputFormat != nil {
		if _, err := output.ParseFormat(*c.OutputFormat); err != nil {
			return err
		}
	}
	if c.Precision != nil && (*c.Precision < 0 || *c.Precision > 9) {
		return fmt.Errorf("precision must be between 0 and 9, got %d", *c.Precision)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	if c.MaxUsers != nil && *c.MaxUsers < 0 {
		return fmt.Errorf("max_users must be non-negative, got %d", *c.MaxUsers)
	}
	if c.MaxRecordingsPerUser != nil && *c.MaxRecordingsPerUser < 0 {
		return fmt.Errorf("max_recordings_per_user must be non-negative, got %d", *c.MaxRecordingsPerUser)
	}
	if c.BeatSaberFPS != nil && *c.BeatSaberFPS <= 0 {
		return fmt.Errorf("beat_saber_fps must be positive, got %f", *c.BeatSaberFPS)
	}
	if c.EulerSequence != nil {
		if _, err := motion.ParseEulerSequence(*c.EulerSequence); err != nil {
			return err
		}
	}
	if c.QuaternionTolerance != nil && *c.QuaternionTolerance <= 0 {
		return fmt.Errorf("quaternion_tolerance must be positive, got %f", *c.QuaternionTolerance)
	}
	return nil
}

// GetMinFrames returns the min_frames value or the default.
func (c *ConvertConfig) GetMinFrames() int {
	if c.MinFrames == nil {
		return DefaultMinFrames
	}
	return *c.MinFrames
}

// GetOutputFormat returns the output_format value or the default.
func (c *ConvertConfig) GetOutputFormat() string {
	if c.OutputFormat == nil {
		return DefaultOutputFormat
	}
	return *c.OutputFormat
}

// GetPrecision returns the precision value or the default.
func (c *ConvertConfig) GetPrecision() int {
	if c.Precision == nil {
		return DefaultPrecision
	}
	return *c.Precision
}

// GetWorkers returns the workers value or the default.
func (c *ConvertConfig) GetWorkers() int {
	if c.Workers == nil {
		return DefaultWorkers
	}
	return *c.Workers
}

// GetMaxUsers returns the max_users value; 0 means all users.
func (c *ConvertConfig) GetMaxUsers() int {
	if c.MaxUsers == nil {
		return 0
	}
	return *c.MaxUsers
}

// GetMaxRecordingsPerUser returns the max_recordings_per_user value; 0 means all.
func (c *ConvertConfig) GetMaxRecordingsPerUser() int {
	if c.MaxRecordingsPerUser == nil {
		return 0
	}
	return *c.MaxRecordingsPerUser
}

// GetBeatSaberFPS returns the beat_saber_fps value or the default.
func (c *ConvertConfig) GetBeatSaberFPS() float64 {
	if c.BeatSaberFPS == nil {
		return DefaultBeatSaberFPS
	}
	return *c.BeatSaberFPS
}

// GetEulerSequence returns the euler_sequence value or the default.
func (c *ConvertConfig) GetEulerSequence() motion.EulerSequence {
	if c.EulerSequence == nil {
		return motion.IntrinsicXYZ
	}
	seq, err := motion.ParseEulerSequence(*c.EulerSequence)
	if err != nil {
		return motion.IntrinsicXYZ
	}
	return seq
}

// GetWritePlots returns the write_plots value or the default.
func (c *ConvertConfig) GetWritePlots() bool {
	return c.WritePlots != nil && *c.WritePlots
}

// GetWriteReport returns the write_report value or the default.
func (c *ConvertConfig) GetWriteReport() bool {
	return c.WriteReport != nil && *c.WriteReport
}

// GetQuaternionTolerance returns the quaternion_tolerance value or the default.
func (c *ConvertConfig) GetQuaternionTolerance() float64 {
	if c.QuaternionTolerance == nil {
		return DefaultQuaternionTolerance
	}
	return *c.QuaternionTolerance
}

// DatasetOptions maps the config onto adapter options.
func (c *ConvertConfig) DatasetOptions() datasets.Options {
	return datasets.Options{
		MinFrames:            c.GetMinFrames(),
		EulerSequence:        c.GetEulerSequence(),
		BeatSaberFPS:         c.GetBeatSaberFPS(),
		MaxUsers:             c.GetMaxUsers(),
		MaxRecordingsPerUser: c.GetMaxRecordingsPerUser(),
	}
}
