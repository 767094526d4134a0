package signature

// RawDefinition is the on-disk shape of a definition, shared by the JSON and YAML formats.
type RawDefinition struct {
	Name     string       `json:"name" yaml:"name" validate:"required"`
	Protocol string       `json:"protocol" yaml:"protocol" validate:"required"`
	Options  RawOptions   `json:"options" yaml:"options"`
	Service  RawService   `json:"service" yaml:"service"`
	Versions *RawVersions `json:"versions,omitempty" yaml:"versions,omitempty"`
}

// RawOptions carries scanner hints.
type RawOptions struct {
	Ports   []int  `json:"ports" yaml:"ports" validate:"dive,min=1,max=65535"`
	Timeout *bool  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// RawService describes how the service itself is recognized.
type RawService struct {
	Regex string `json:"regex" yaml:"regex" validate:"required"`
	Log   bool   `json:"log" yaml:"log"`
}

// RawVersions selects exactly one version strategy.
type RawVersions struct {
	Semver *RawSemver        `json:"semver,omitempty" yaml:"semver,omitempty"`
	Regex  []RawRegexVersion `json:"regex,omitempty" yaml:"regex,omitempty" validate:"omitempty,dive"`
}

// RawSemver is the semver strategy. Regex is accepted for compatibility with older
// catalogs but unused: extraction always starts at the end of the service match.
type RawSemver struct {
	Regex  string     `json:"regex,omitempty" yaml:"regex,omitempty"`
	Ranges []RawRange `json:"ranges" yaml:"ranges" validate:"required,min=1,dive"`
}

// RawRange is one inclusive version interval.
type RawRange struct {
	From        string `json:"from" yaml:"from" validate:"required"`
	To          string `json:"to" yaml:"to" validate:"required"`
	Description string `json:"description" yaml:"description"`
}

// RawRegexVersion is one entry of the table strategy.
type RawRegexVersion struct {
	Regex       string `json:"regex" yaml:"regex" validate:"required"`
	Version     string `json:"version" yaml:"version" validate:"required"`
	Description string `json:"description" yaml:"description"`
}

// rawDocument is the optional wrapper around the definition list.
type rawDocument struct {
	Schema      string          `json:"schema" yaml:"schema"`
	Definitions []RawDefinition `json:"definitions" yaml:"definitions"`
}
