// Package config loads service settings from the environment and the
// optional calibration profile.
//
// Environment (a .env file in the working directory is loaded first):
//
//	PORT                    listen port (8080)
//	UPLOAD_DIR              uploaded PDFs and signatures (uploads)
//	OUTPUT_DIR              generated archives (output)
//	STORE_DIR               saved placement (data)
//	SESSION_TTL             idle session lifetime (5m)
//	SESSION_SWEEP_INTERVAL  reaper period (10m)
//	DOCUMENT_TIMEOUT        per-document stamping limit, 0 disables (30s)
//	MAX_PDF_UPLOAD          bytes per PDF upload (25 MiB)
//	MAX_SIGNATURE_UPLOAD    bytes per signature upload (5 MiB)
//	CALIBRATION_FILE        YAML calibration profile (none)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-stamppdf/internal/geometry"
	"go-stamppdf/internal/placement"
)

// Error reports an invalid setting.
type Error struct {
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error.
func NewError(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Profile is the calibration of the editor and of the coordinate transform.
type Profile struct {
	Scale       geometry.ScalePolicy `yaml:",inline"`
	Calibration geometry.Calibration `yaml:",inline"`

	// MinSignatureSize is the smallest side, in display pixels, a scale
	// operation may leave.
	MinSignatureSize float64             `yaml:"min-signature-size"`
	DefaultPlacement placement.Placement `yaml:"default-placement"`

	WheelStep      float64 `yaml:"wheel-step"`
	ButtonStep     float64 `yaml:"button-step"`
	RotateStep     float64 `yaml:"rotate-step"`
	FineRotateStep float64 `yaml:"fine-rotate-step"`
}

// DefaultProfile matches the browser editor the offsets were measured against.
func DefaultProfile() Profile {
	return Profile{
		Scale:            geometry.DefaultScalePolicy,
		Calibration:      geometry.DefaultCalibration,
		MinSignatureSize: 1,
		DefaultPlacement: placement.Default,
		WheelStep:        placement.DefaultSteps.Wheel,
		ButtonStep:       placement.DefaultSteps.Button,
		RotateStep:       placement.DefaultSteps.Rotate,
		FineRotateStep:   placement.DefaultSteps.FineRotate,
	}
}

// Steps returns the editor's discrete control increments.
func (p Profile) Steps() placement.Steps {
	return placement.Steps{
		Button:     p.ButtonStep,
		Wheel:      p.WheelStep,
		Rotate:     p.RotateStep,
		FineRotate: p.FineRotateStep,
	}
}

// Validate checks the profile.
func (p Profile) Validate() error {
	if !(p.Scale.DesiredScale > 0) {
		return NewError("desired-scale", "must be positive")
	}
	if !(p.Scale.MaxDisplayWidth > 0) {
		return NewError("max-display-width", "must be positive")
	}
	if !finite(p.Calibration.OffsetX) || !finite(p.Calibration.OffsetY) {
		return NewError("offset-x", "offsets must be finite numbers")
	}
	if p.MinSignatureSize < 0 || !finite(p.MinSignatureSize) {
		return NewError("min-signature-size", "must not be negative")
	}
	if !p.DefaultPlacement.Valid() {
		return NewError("default-placement", "width and height must be positive")
	}
	if !(p.WheelStep > 0 && p.WheelStep < 1) {
		return NewError("wheel-step", "must be between 0 and 1")
	}
	if !(p.ButtonStep > 0 && p.ButtonStep < 1) {
		return NewError("button-step", "must be between 0 and 1")
	}
	if !finite(p.RotateStep) || !finite(p.FineRotateStep) {
		return NewError("rotate-step", "must be a finite number")
	}
	return nil
}

// ParseProfile reads a YAML profile. Keys missing from data keep their defaults.
func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, &Error{Message: "invalid calibration profile", Err: err}
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadProfile reads the YAML profile at path.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, &Error{Field: "CALIBRATION_FILE", Message: "cannot read " + path, Err: err}
	}
	return ParseProfile(data)
}

// Config is the complete service configuration.
type Config struct {
	Port               int
	UploadDir          string
	OutputDir          string
	StoreDir           string
	SessionTTL         time.Duration
	SweepInterval      time.Duration
	DocumentTimeout    time.Duration
	MaxPDFUpload       int64
	MaxSignatureUpload int64
	Profile            Profile
}

// Default returns the configuration used when no variable is set.
func Default() *Config {
	return &Config{
		Port:               8080,
		UploadDir:          "uploads",
		OutputDir:          "output",
		StoreDir:           "data",
		SessionTTL:         5 * time.Minute,
		SweepInterval:      10 * time.Minute,
		DocumentTimeout:    30 * time.Second,
		MaxPDFUpload:       25 * 1024 * 1024,
		MaxSignatureUpload: 5 * 1024 * 1024,
		Profile:            DefaultProfile(),
	}
}

// Load reads .env, if present, and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &Error{Message: "cannot read .env", Err: err}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, starting from Default.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	c := Default()
	r := envReader{lookup: lookup}

	c.Port = r.int("PORT", c.Port)
	c.UploadDir = r.string("UPLOAD_DIR", c.UploadDir)
	c.OutputDir = r.string("OUTPUT_DIR", c.OutputDir)
	c.StoreDir = r.string("STORE_DIR", c.StoreDir)
	c.SessionTTL = r.duration("SESSION_TTL", c.SessionTTL)
	c.SweepInterval = r.duration("SESSION_SWEEP_INTERVAL", c.SweepInterval)
	c.DocumentTimeout = r.duration("DOCUMENT_TIMEOUT", c.DocumentTimeout)
	c.MaxPDFUpload = int64(r.int("MAX_PDF_UPLOAD", int(c.MaxPDFUpload)))
	c.MaxSignatureUpload = int64(r.int("MAX_SIGNATURE_UPLOAD", int(c.MaxSignatureUpload)))
	if r.err != nil {
		return nil, r.err
	}

	if c.Port < 1 || c.Port > 65535 {
		return nil, NewError("PORT", "must be between 1 and 65535")
	}
	if c.SessionTTL <= 0 {
		return nil, NewError("SESSION_TTL", "must be positive")
	}
	if c.SweepInterval <= 0 {
		return nil, NewError("SESSION_SWEEP_INTERVAL", "must be positive")
	}
	if c.DocumentTimeout < 0 {
		return nil, NewError("DOCUMENT_TIMEOUT", "must not be negative")
	}
	if c.MaxPDFUpload <= 0 || c.MaxSignatureUpload <= 0 {
		return nil, NewError("MAX_PDF_UPLOAD", "upload limits must be positive")
	}

	if path, ok := lookup("CALIBRATION_FILE"); ok && path != "" {
		p, err := LoadProfile(path)
		if err != nil {
			return nil, err
		}
		c.Profile = p
	}
	return c, nil
}

// envReader keeps the first parse error so FromEnv can check once.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *envReader) string(key, def string) string {
	if v, ok := r.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (r *envReader) int(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil && r.err == nil {
		r.err = &Error{Field: key, Message: "not an integer: " + v, Err: err}
	}
	if err != nil {
		return def
	}
	return n
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil && r.err == nil {
		r.err = &Error{Field: key, Message: "not a duration: " + v, Err: err}
	}
	if err != nil {
		return def
	}
	return d
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
