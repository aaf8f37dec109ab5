package loam

// StateMetadata is the frontmatter of a state document.
// It uses "mapstructure" tags to match the standard frontmatter keys.
type StateMetadata struct {
	// Name overrides the name derived from the document path.
	Name   string `json:"name" mapstructure:"name"`
	Sticky bool   `json:"sticky" mapstructure:"sticky"`

	// Params lists the parameter keys the state introduces.
	Params []string `json:"params" mapstructure:"params"`

	// CompareAllParams makes the state compare every parameter key. It overrides Params.
	CompareAllParams bool `json:"compare_all_params" mapstructure:"compare_all_params"`

	// General Metadata
	Metadata map[string]string `json:"metadata" mapstructure:"metadata"`
}
