package signature

// yamlSignature is the intermediate struct for parsing a YAML signature
// descriptor. Maps YAML fields to types.Signature.
type yamlSignature struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	MediaType        string   `yaml:"media_type"`
	Type             string   `yaml:"type,omitempty"`   // "string" (default) or "hex"
	Value            string   `yaml:"value"`            // pattern, encoded per Type
	Mask             string   `yaml:"mask,omitempty"`   // hex
	Offset           string   `yaml:"offset,omitempty"` // "N" or "N:M"
	Priority         *int     `yaml:"priority,omitempty"`
	Description      string   `yaml:"description,omitempty"`
	Categories       []string `yaml:"categories,omitempty"`
	Examples         []string `yaml:"examples,omitempty"`          // hex
	NegativeExamples []string `yaml:"negative_examples,omitempty"` // hex
}

// yamlSignaturesFile represents the top-level structure of a signatures
// YAML file.
type yamlSignaturesFile struct {
	Signatures []yamlSignature `yaml:"signatures"`
}
