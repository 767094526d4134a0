package signature

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Build validates raw definitions and compiles them into a catalog.
// All problems are reported together in a *ValidationError.
func Build(raws []RawDefinition) (*Catalog, error) {
	if len(raws) == 0 {
		return nil, ErrEmptyCatalog
	}

	var problems []Problem
	defs := make([]Definition, 0, len(raws))
	for i, raw := range raws {
		def, probs := compile(i, raw)
		if len(probs) > 0 {
			problems = append(problems, probs...)
			continue
		}
		defs = append(defs, def)
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return &Catalog{definitions: defs}, nil
}

func compile(index int, raw RawDefinition) (Definition, []Problem) {
	var problems []Problem
	add := func(field, format string, args ...any) {
		problems = append(problems, Problem{
			Index:   index,
			Name:    raw.Name,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if err := validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			add("", "%v", err)
			return Definition{}, problems
		}
		for _, fe := range verrs {
			add(fieldPath(fe), "failed '%s' check", fe.Tag())
		}
	}

	if raw.Protocol == ProtocolCustomTCP && raw.Options.Message == "" {
		add("options.message", "missing mandatory option 'message' for protocol %s. Service: %s", ProtocolCustomTCP, raw.Name)
	}

	def := Definition{
		Name:       raw.Name,
		Protocol:   raw.Protocol,
		Message:    raw.Options.Message,
		LogOnMatch: raw.Service.Log,
	}
	if raw.Options.Timeout != nil {
		def.Timeout = *raw.Options.Timeout
	}
	for _, p := range raw.Options.Ports {
		if p > 0 && p <= 65535 {
			def.Ports = append(def.Ports, uint16(p))
		}
	}

	if raw.Service.Regex != "" {
		re, err := regexp.Compile(raw.Service.Regex)
		if err != nil {
			add("service.regex", "invalid regex: %v", err)
		}
		def.ServicePattern = re
	}

	if raw.Versions != nil {
		switch v := raw.Versions; {
		case v.Semver != nil && len(v.Regex) > 0:
			add("versions", "semver and regex strategies are mutually exclusive")
		case v.Semver != nil:
			strat, probs := compileSemver(v.Semver)
			for _, p := range probs {
				add(p.Field, "%s", p.Message)
			}
			def.Strategy = strat
		case len(v.Regex) > 0:
			strat, probs := compileTable(v.Regex)
			for _, p := range probs {
				add(p.Field, "%s", p.Message)
			}
			def.Strategy = strat
		default:
			add("versions", "either semver or regex must be set")
		}
	}

	return def, problems
}

func compileSemver(raw *RawSemver) (*SemverStrategy, []Problem) {
	var problems []Problem
	strat := &SemverStrategy{Ranges: make([]Range, 0, len(raw.Ranges))}

	if raw.Regex != "" {
		if _, err := regexp.Compile(raw.Regex); err != nil {
			problems = append(problems, Problem{Field: "versions.semver.regex", Message: fmt.Sprintf("invalid regex: %v", err)})
		}
	}

	for i, rr := range raw.Ranges {
		field := fmt.Sprintf("versions.semver.ranges[%d]", i)
		from, errFrom := semver.StrictNewVersion(rr.From)
		if errFrom != nil && rr.From != "" {
			problems = append(problems, Problem{Field: field + ".from", Message: fmt.Sprintf("invalid semver %q: %v", rr.From, errFrom)})
		}
		to, errTo := semver.StrictNewVersion(rr.To)
		if errTo != nil && rr.To != "" {
			problems = append(problems, Problem{Field: field + ".to", Message: fmt.Sprintf("invalid semver %q: %v", rr.To, errTo)})
		}
		if errFrom != nil || errTo != nil {
			continue
		}
		if from.GreaterThan(to) {
			problems = append(problems, Problem{Field: field, Message: fmt.Sprintf("from %s is greater than to %s", from, to)})
			continue
		}
		strat.Ranges = append(strat.Ranges, Range{From: from, To: to, Description: rr.Description})
	}
	return strat, problems
}

func compileTable(raws []RawRegexVersion) (*TableStrategy, []Problem) {
	var problems []Problem
	strat := &TableStrategy{Entries: make([]TableEntry, 0, len(raws))}
	for i, rv := range raws {
		if rv.Regex == "" {
			continue
		}
		re, err := regexp.Compile(rv.Regex)
		if err != nil {
			problems = append(problems, Problem{
				Field:   fmt.Sprintf("versions.regex[%d].regex", i),
				Message: fmt.Sprintf("invalid regex: %v", err),
			})
			continue
		}
		strat.Entries = append(strat.Entries, TableEntry{Pattern: re, Version: rv.Version, Description: rv.Description})
	}
	return strat, problems
}

// fieldPath turns "RawDefinition.Options.Ports[0]" into "options.ports[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}
