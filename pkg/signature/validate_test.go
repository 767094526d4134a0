package signature

import (
	"errors"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() RawDefinition {
	return RawDefinition{
		Name:     "ExampleSrv",
		Protocol: "tcp",
		Options:  RawOptions{Ports: []int{4000}},
		Service:  RawService{Regex: "ExampleSrv/", Log: true},
		Versions: &RawVersions{
			Semver: &RawSemver{Ranges: []RawRange{
				{From: "1.0.0", To: "1.9.9", Description: "legacy"},
			}},
		},
	}
}

func TestBuild_Valid(t *testing.T) {
	c, err := Build([]RawDefinition{validRaw()})
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.True(t, c.Definitions()[0].ServicePattern.MatchString("ExampleSrv/1.0"))
}

func TestBuild_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RawDefinition)
		field  string
		msg    string
	}{
		{
			name:   "missing name",
			mutate: func(r *RawDefinition) { r.Name = "" },
			field:  "name",
			msg:    "required",
		},
		{
			name:   "missing service regex",
			mutate: func(r *RawDefinition) { r.Service.Regex = "" },
			field:  "service.regex",
			msg:    "required",
		},
		{
			name:   "bad service regex",
			mutate: func(r *RawDefinition) { r.Service.Regex = "(" },
			field:  "service.regex",
			msg:    "invalid regex",
		},
		{
			name:   "port out of range",
			mutate: func(r *RawDefinition) { r.Options.Ports = []int{70000} },
			field:  "options.ports[0]",
			msg:    "max",
		},
		{
			name:   "custom tcp without message",
			mutate: func(r *RawDefinition) { r.Protocol = ProtocolCustomTCP },
			field:  "options.message",
			msg:    "missing mandatory option 'message' for protocol tcp/custom. Service: ExampleSrv",
		},
		{
			name: "both strategies",
			mutate: func(r *RawDefinition) {
				r.Versions.Regex = []RawRegexVersion{{Regex: "x", Version: "1"}}
			},
			field: "versions",
			msg:   "mutually exclusive",
		},
		{
			name:   "neither strategy",
			mutate: func(r *RawDefinition) { r.Versions = &RawVersions{} },
			field:  "versions",
			msg:    "either semver or regex",
		},
		{
			name:   "two component bound",
			mutate: func(r *RawDefinition) { r.Versions.Semver.Ranges[0].From = "1.0" },
			field:  "versions.semver.ranges[0].from",
			msg:    "invalid semver",
		},
		{
			name:   "inverted range",
			mutate: func(r *RawDefinition) { r.Versions.Semver.Ranges[0].From = "2.0.0" },
			field:  "versions.semver.ranges[0]",
			msg:    "greater than",
		},
		{
			name:   "no ranges",
			mutate: func(r *RawDefinition) { r.Versions.Semver.Ranges = nil },
			field:  "versions.semver.ranges",
			msg:    "required",
		},
		{
			name: "bad table regex",
			mutate: func(r *RawDefinition) {
				r.Versions = &RawVersions{Regex: []RawRegexVersion{{Regex: "[", Version: "1.0"}}}
			},
			field: "versions.regex[0].regex",
			msg:   "invalid regex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)

			_, err := Build([]RawDefinition{raw})
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)

			found := false
			for _, p := range verr.Problems {
				if p.Field == tt.field && strings.Contains(p.Message, tt.msg) {
					found = true
				}
			}
			assert.True(t, found, "no problem on %q containing %q in %v", tt.field, tt.msg, verr.Problems)
		})
	}
}

func TestBuild_CollectsAllProblems(t *testing.T) {
	bad1 := validRaw()
	bad1.Name = "one"
	bad1.Service.Regex = "("
	bad2 := validRaw()
	bad2.Name = "two"
	bad2.Protocol = ProtocolCustomTCP

	_, err := Build([]RawDefinition{bad1, validRaw(), bad2})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Problems, 2)
	assert.Equal(t, 0, verr.Problems[0].Index)
	assert.Equal(t, 2, verr.Problems[1].Index)
	assert.Contains(t, err.Error(), "2 problems")
}

func TestBuild_Empty(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestRange_ContainsIsInclusive(t *testing.T) {
	r := Range{From: semver.MustParse("1.0.0"), To: semver.MustParse("1.9.9")}
	assert.True(t, r.Contains(semver.MustParse("1.0.0")))
	assert.True(t, r.Contains(semver.MustParse("1.9.9")))
	assert.True(t, r.Contains(semver.MustParse("1.5.0")))
	assert.False(t, r.Contains(semver.MustParse("0.9.9")))
	assert.False(t, r.Contains(semver.MustParse("2.0.0")))

	assert.True(t, r.Contains(semver.MustParse("1.0.0-beta")))
	assert.True(t, r.Contains(semver.MustParse("1.9.9+build.1")))
	assert.False(t, r.Contains(semver.MustParse("2.0.0-rc.1")))
}

func TestNewCatalog_Copies(t *testing.T) {
	defs := []Definition{{Name: "a"}, {Name: "b"}}
	c := NewCatalog(defs...)
	defs[0].Name = "changed"
	assert.Equal(t, "a", c.Definitions()[0].Name)

	var nilCatalog *Catalog
	assert.Zero(t, nilCatalog.Len())
	assert.Nil(t, nilCatalog.Definitions())
}
