package manifest

// Manifest is a declarative extension.
type Manifest struct {
	Name      string          `yaml:"name" json:"name"`
	CLIOption string          `yaml:"cli_option,omitempty" json:"cli_option,omitempty"`
	Help      string          `yaml:"help" json:"help"`
	Requires  string          `yaml:"requires,omitempty" json:"requires,omitempty"`
	Models    []string        `yaml:"models,omitempty" json:"models,omitempty"`
	Deploy    DeployOverrides `yaml:"deploy,omitempty" json:"deploy,omitempty"`
	Hooks     HookCommands    `yaml:"hooks,omitempty" json:"hooks,omitempty"`
}

// DeployOverrides are the deploy argument values a manifest sets. Unset
// fields leave the argument alone; maps are merged key by key.
type DeployOverrides struct {
	AttachStorage []string          `yaml:"attach_storage,omitempty" json:"attach_storage,omitempty"`
	Base          *string           `yaml:"base,omitempty" json:"base,omitempty"`
	Bind          map[string]string `yaml:"bind,omitempty" json:"bind,omitempty"`
	Channel       *string           `yaml:"channel,omitempty" json:"channel,omitempty"`
	Config        map[string]any    `yaml:"config,omitempty" json:"config,omitempty"`
	Constraints   map[string]string `yaml:"constraints,omitempty" json:"constraints,omitempty"`
	Force         *bool             `yaml:"force,omitempty" json:"force,omitempty"`
	NumUnits      *int              `yaml:"num_units,omitempty" json:"num_units,omitempty"`
	Overlays      []string          `yaml:"overlays,omitempty" json:"overlays,omitempty"`
	Resources     map[string]string `yaml:"resources,omitempty" json:"resources,omitempty"`
	Revision      *int              `yaml:"revision,omitempty" json:"revision,omitempty"`
	Storage       map[string]string `yaml:"storage,omitempty" json:"storage,omitempty"`
	To            []string          `yaml:"to,omitempty" json:"to,omitempty"`
	Trust         *bool             `yaml:"trust,omitempty" json:"trust,omitempty"`
}

// HookCommands are argv lists run at the hook points. An empty list skips
// the hook.
type HookCommands struct {
	Setup      []string `yaml:"setup,omitempty" json:"setup,omitempty"`
	PreDeploy  []string `yaml:"pre_deploy,omitempty" json:"pre_deploy,omitempty"`
	PostDeploy []string `yaml:"post_deploy,omitempty" json:"post_deploy,omitempty"`
	Teardown   []string `yaml:"teardown,omitempty" json:"teardown,omitempty"`
}

// Option returns the CLI option token, which defaults to the name.
func (m *Manifest) Option() string {
	if m.CLIOption != "" {
		return m.CLIOption
	}
	return m.Name
}
