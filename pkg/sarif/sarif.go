// Package sarif renders detections as a SARIF 2.1.0 log.
//
// Every scanned file that was identified becomes an artifact carrying its
// media type, plus a note-level result pointing at the signature that
// matched it.
package sarif

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/sniff/pkg/types"
)

const (
	SchemaURI   = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version     = "2.1.0"
	ToolName    = "sniff"
	ToolVersion = "0.1.0"
)

// Report is a SARIF log with a single run.
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`

	ruleIndex map[string]int
}

type Run struct {
	Tool      Tool       `json:"tool"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	Results   []Result   `json:"results"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule describes one signature.
type Rule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription Text            `json:"shortDescription"`
	Properties       *RuleProperties `json:"properties,omitempty"`
}

type RuleProperties struct {
	MediaType string   `json:"mediaType"`
	Tags      []string `json:"tags,omitempty"`
}

// Text is a SARIF message or multiformat string.
type Text struct {
	Text string `json:"text"`
}

// Artifact is a scanned file. MimeType is the innermost identified type.
type Artifact struct {
	Location ArtifactLocation `json:"location"`
	Length   int64            `json:"length"`
	MimeType string           `json:"mimeType,omitempty"`
}

// Result is one identified file.
type Result struct {
	RuleID     string            `json:"ruleId"`
	RuleIndex  *int              `json:"ruleIndex,omitempty"`
	Level      string            `json:"level"`
	Message    Text              `json:"message"`
	Locations  []Location        `json:"locations"`
	Properties *ResultProperties `json:"properties,omitempty"`
}

// ResultProperties lists the media type of each unwrapped layer.
type ResultProperties struct {
	MediaType string   `json:"mediaType"`
	Layers    []string `json:"layers,omitempty"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
}

type ArtifactLocation struct {
	URI   string `json:"uri"`
	Index *int   `json:"index,omitempty"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{{
			Tool:    Tool{Driver: Driver{Name: ToolName, Version: ToolVersion, Rules: []Rule{}}},
			Results: []Result{},
		}},
		ruleIndex: make(map[string]int),
	}
}

func (r *Report) run() *Run {
	return &r.Runs[0]
}

// AddRule registers a signature. Results added later for the same ID
// reference it by index.
func (r *Report) AddRule(sig *types.Signature) {
	text := sig.Description
	if text == "" {
		text = sig.Name
	}

	driver := &r.run().Tool.Driver
	r.ruleIndex[sig.ID] = len(driver.Rules)
	driver.Rules = append(driver.Rules, Rule{
		ID:               sig.ID,
		Name:             sig.Name,
		ShortDescription: Text{Text: text},
		Properties: &RuleProperties{
			MediaType: sig.MediaType.String(),
			Tags:      sig.Categories,
		},
	})
}

// AddResult adds an identified detection and its artifact. It returns false
// and adds nothing when d matched no signature.
func (r *Report) AddResult(d *types.Detection) bool {
	if !d.Matched() {
		return false
	}
	run := r.run()

	uri := formatFileURI(d.Path)
	artifactIndex := len(run.Artifacts)
	run.Artifacts = append(run.Artifacts, Artifact{
		Location: ArtifactLocation{URI: uri},
		Length:   d.Size,
		MimeType: innermostMatched(d).String(),
	})

	props := &ResultProperties{MediaType: d.MediaType.String()}
	if d.Inner != nil {
		for _, mt := range d.Layers() {
			props.Layers = append(props.Layers, mt.String())
		}
	}

	result := Result{
		RuleID:  d.SignatureID,
		Level:   "note",
		Message: Text{Text: d.LayerString()},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: uri, Index: &artifactIndex},
			},
		}},
		Properties: props,
	}
	if i, ok := r.ruleIndex[d.SignatureID]; ok {
		result.RuleIndex = &i
	}

	run.Results = append(run.Results, result)
	return true
}

// ToJSON serializes the report with indentation.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// innermostMatched returns the deepest layer type that is not the sentinel.
func innermostMatched(d *types.Detection) types.MediaType {
	mt := d.MediaType
	for cur := d.Inner; cur != nil; cur = cur.Inner {
		if cur.Matched() {
			mt = cur.MediaType
		}
	}
	return mt
}

// formatFileURI turns absolute paths into file:// URIs. Relative paths only
// get forward slashes.
func formatFileURI(path string) string {
	path = filepath.ToSlash(path)
	if !filepath.IsAbs(filepath.FromSlash(path)) {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "file://" + path
}
