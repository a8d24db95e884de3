// Package validation checks job submissions before any state is created.
// Structural problems and known injection patterns are both rejected with
// field-specific reasons; a rejected submission is never assigned a job ID.
package validation

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/go-multierror"

	"github.com/spectraproject/spectra/internal/common/spectraerrors"
	"github.com/spectraproject/spectra/internal/spectra/domain"
)

const MaxJobNameLength = 100

// Patterns that indicate an attempt to smuggle executable content through
// free-text fields. Matched case-insensitively against the job name,
// description and all additional parameter values.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(drop|truncate|alter)\s+table\b`),
	regexp.MustCompile(`(?i)\b(delete|select)\s+.*\bfrom\b`),
	regexp.MustCompile(`(?i)\binsert\s+into\b`),
	regexp.MustCompile(`(?i)\bunion\s+select\b`),
	regexp.MustCompile(`;\s*--`),
	regexp.MustCompile(`(?i)<\s*script\b`),
	regexp.MustCompile(`(?i)\bjavascript\s*:`),
	regexp.MustCompile(`(?i)\bon(error|load|click)\s*=`),
	regexp.MustCompile(`\$\{\s*jndi\s*:`),
	regexp.MustCompile(`\$\{.*(env|sys|java)\s*:`),
}

// JobParameters validates a submission payload. All problems are collected
// into a single multierror so the caller sees every invalid field at once.
func JobParameters(params domain.JobParameters) error {
	var result *multierror.Error

	if params.Name == "" {
		result = multierror.Append(result, &spectraerrors.ErrInvalidArgument{
			Name: "jobName", Value: params.Name, Message: "job name must not be empty",
		})
	} else if len(params.Name) > MaxJobNameLength {
		result = multierror.Append(result, &spectraerrors.ErrInvalidArgument{
			Name: "jobName", Value: params.Name,
			Message: fmt.Sprintf("job name must be at most %d characters", MaxJobNameLength),
		})
	}
	if params.ExpectedEvents <= 0 {
		result = multierror.Append(result, &spectraerrors.ErrInvalidArgument{
			Name: "expectedEvents", Value: params.ExpectedEvents, Message: "expected event count must be positive",
		})
	}
	if params.EnergyThreshold <= 0 {
		result = multierror.Append(result, &spectraerrors.ErrInvalidArgument{
			Name: "energyThreshold", Value: params.EnergyThreshold, Message: "energy threshold must be positive",
		})
	}

	if err := checkInjection("jobName", params.Name); err != nil {
		result = multierror.Append(result, err)
	}
	if err := checkInjection("description", params.Description); err != nil {
		result = multierror.Append(result, err)
	}
	for key, value := range params.Additional {
		if err := checkInjection(fmt.Sprintf("additional.%s", key), value); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func checkInjection(field, value string) error {
	if value == "" {
		return nil
	}
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(value) {
			return &spectraerrors.ErrInvalidArgument{
				Name: field, Value: value, Message: "malicious content detected",
			}
		}
	}
	return nil
}
