package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/service"
	"gopkg.in/yaml.v3"
)

// ErrEmptyFile is returned when a seed file has no content.
var ErrEmptyFile = errors.New("seed: file is empty")

const dateLayout = "2006-01-02"

// File is the top-level document of a rules seed file.
type File struct {
	Rules []RuleSpec `yaml:"rules" validate:"required,min=1,dive"`
}

// RuleSpec describes one recurrence rule in a seed file. Dates are
// YYYY-MM-DD; references are UUIDs of existing records.
type RuleSpec struct {
	Name       string `yaml:"name"         validate:"required"`
	Frequency  string `yaml:"frequency"    validate:"required,oneof=daily weekly monthly quarterly yearly"`
	DayOfMonth *int   `yaml:"day_of_month" validate:"omitempty,min=1,max=31"`
	DayOfWeek  *int   `yaml:"day_of_week"  validate:"omitempty,min=0,max=6"`
	StartDate  string `yaml:"start_date"   validate:"required,datetime=2006-01-02"`
	EndDate    string `yaml:"end_date"     validate:"omitempty,datetime=2006-01-02"`
	ClientID   string `yaml:"client_id"    validate:"omitempty,uuid"`
	ServiceID  string `yaml:"service_id"   validate:"omitempty,uuid"`
	AssignedTo string `yaml:"assigned_to"  validate:"omitempty,uuid"`
}

var validate = validator.New()

// Parse decodes and validates a seed document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadReader reads a seed document from r.
func LoadReader(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("seed: read: %w", err)
	}
	return Parse(data)
}

// LoadFile reads a seed document from path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("seed: %s: %w", path, err)
	}
	return f, nil
}

// Validate checks the document's tags and then builds every rule through
// the domain constructor, so a file that validates will seed cleanly
// unless a referenced record is missing.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("seed: invalid file: %w", err)
	}

	var errs []error
	for i, spec := range f.Rules {
		params, err := spec.Params()
		if err == nil {
			_, err = domain.NewRecurrenceRule(params, time.Now())
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("rules[%d] %q: %w", i, spec.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Params converts the spec into domain rule parameters.
func (s RuleSpec) Params() (domain.RuleParams, error) {
	start, err := time.Parse(dateLayout, s.StartDate)
	if err != nil {
		return domain.RuleParams{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", domain.ErrValidation)
	}

	params := domain.RuleParams{
		Name:       s.Name,
		Frequency:  domain.Frequency(s.Frequency),
		DayOfMonth: s.DayOfMonth,
		DayOfWeek:  s.DayOfWeek,
		StartDate:  start,
	}

	if s.EndDate != "" {
		end, err := time.Parse(dateLayout, s.EndDate)
		if err != nil {
			return domain.RuleParams{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD", domain.ErrValidation)
		}
		params.EndDate = &end
	}

	if params.ClientID, err = parseOptionalID(s.ClientID); err != nil {
		return domain.RuleParams{}, err
	}
	if params.ServiceID, err = parseOptionalID(s.ServiceID); err != nil {
		return domain.RuleParams{}, err
	}
	if params.AssignedTo, err = parseOptionalID(s.AssignedTo); err != nil {
		return domain.RuleParams{}, err
	}

	return params, nil
}

func parseOptionalID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a UUID", domain.ErrInvalidID, raw)
	}
	return &id, nil
}

// Apply creates every rule in f through rules and returns the created
// rules. It stops at the first failure; rules created before it remain.
func Apply(
	ctx context.Context,
	rules service.RuleService,
	f *File,
	logger *slog.Logger,
) ([]*domain.RecurrenceRule, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "seed"))

	created := make([]*domain.RecurrenceRule, 0, len(f.Rules))
	for i, spec := range f.Rules {
		params, err := spec.Params()
		if err != nil {
			return created, fmt.Errorf("rules[%d] %q: %w", i, spec.Name, err)
		}

		rule, err := rules.CreateRule(ctx, params)
		if err != nil {
			return created, fmt.Errorf("rules[%d] %q: %w", i, spec.Name, err)
		}

		log.Info("seeded recurrence rule",
			slog.String("rule_id", rule.ID.String()),
			slog.String("name", rule.Name))
		created = append(created, rule)
	}

	return created, nil
}
