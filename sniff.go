// Package sniff identifies the media type of byte streams from their magic
// bytes.
//
// Each signature pairs a byte pattern, an optional bit mask and an offset
// range with the media type it identifies. A Detector tries its signatures in
// priority order against the head of a stream and reports the first match.
// Compressed streams are unwrapped and their payload is detected as well.
//
// # Basic Usage
//
// Create a detector with builtin signatures and sniff a file:
//
//	detector, err := sniff.NewDetector()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	d, err := detector.DetectFile("/path/to/archive.tar.gz")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(d.LayerString()) // application/gzip > application/x-tar
//
// # Streams
//
// DetectReader reads only as much of a stream as the signatures need and
// never rewinds it, so it works on pipes and network connections:
//
//	d, err := detector.DetectReader(os.Stdin)
package sniff

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/praetorian-inc/sniff/pkg/detect"
	"github.com/praetorian-inc/sniff/pkg/signature"
	"github.com/praetorian-inc/sniff/pkg/types"
	"github.com/praetorian-inc/sniff/pkg/unwrap"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/sniff" without subpackages.
type (
	// Detection is the outcome of sniffing one stream.
	Detection = types.Detection

	// Signature describes the magic bytes of one media type.
	Signature = types.Signature

	// MediaType is a type/subtype pair such as application/pdf.
	MediaType = types.MediaType
)

// OctetStream is reported when no signature matches.
var OctetStream = types.OctetStream

// DefaultMaxDepth is how many compression layers a Detector unwraps by
// default.
const DefaultMaxDepth = 3

// Detector identifies media types. It is safe for concurrent use.
type Detector struct {
	chain  *detect.Chain
	config *detectorConfig
}

// detectorConfig holds detector configuration.
type detectorConfig struct {
	signatures []*types.Signature
	maxDepth   int
}

// Option configures a Detector.
type Option func(*detectorConfig)

// WithSignatures uses custom signatures instead of the builtin ones.
func WithSignatures(sigs []*Signature) Option {
	return func(c *detectorConfig) {
		c.signatures = sigs
	}
}

// WithMaxDepth sets how many nested compression layers are unwrapped.
// Zero disables unwrapping.
func WithMaxDepth(depth int) Option {
	return func(c *detectorConfig) {
		c.maxDepth = max(depth, 0)
	}
}

// WithoutUnwrap reports only the outermost media type.
func WithoutUnwrap() Option {
	return WithMaxDepth(0)
}

// NewDetector creates a Detector with the given options.
//
// By default, the detector:
//   - Uses all builtin signatures
//   - Unwraps up to DefaultMaxDepth compression layers
func NewDetector(opts ...Option) (*Detector, error) {
	config := &detectorConfig{
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.signatures == nil {
		sigs, err := LoadBuiltinSignatures()
		if err != nil {
			return nil, fmt.Errorf("loading builtin signatures: %w", err)
		}
		config.signatures = sigs
	}

	chain, err := signature.Compile(config.signatures)
	if err != nil {
		return nil, fmt.Errorf("compiling signatures: %w", err)
	}

	return &Detector{
		chain:  chain,
		config: config,
	}, nil
}

// DetectReader detects the media type of r. It consumes at most the bytes the
// signatures need, plus whatever decompression of nested layers requires.
// A stream that matches nothing yields OctetStream and no error.
func (d *Detector) DetectReader(r io.Reader) (*Detection, error) {
	return d.detect(r, 0, time.Now().UTC())
}

// DetectBytes detects the media type of in-memory content.
func (d *Detector) DetectBytes(data []byte) (*Detection, error) {
	det, err := d.DetectReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	det.Size = int64(len(data))
	return det, nil
}

// DetectFile opens and detects the file at path.
func (d *Detector) DetectFile(path string) (*Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	det, err := d.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detecting %s: %w", path, err)
	}
	det.Path = path
	det.Size = info.Size()
	return det, nil
}

// SignatureCount returns the number of signatures loaded.
func (d *Detector) SignatureCount() int {
	return len(d.config.signatures)
}

// Signatures returns a copy of the loaded signatures.
func (d *Detector) Signatures() []*Signature {
	sigs := make([]*Signature, len(d.config.signatures))
	copy(sigs, d.config.signatures)
	return sigs
}

// MaxDepth returns how many compression layers are unwrapped.
func (d *Detector) MaxDepth() int {
	return d.config.maxDepth
}

// ReadLimit returns how many bytes of each layer are read for detection.
func (d *Detector) ReadLimit() int64 {
	return d.chain.ReadLimit()
}

// TruncatedSignatures returns the IDs of signatures whose offset range
// reaches past the read limit. They only match within the first ReadLimit
// bytes of each layer.
func (d *Detector) TruncatedSignatures() []string {
	return d.chain.Truncated()
}

// detect runs the chain on r and recurses into decompressed payloads. Errors
// from a nested layer leave Inner unset.
func (d *Detector) detect(r io.Reader, depth int, now time.Time) (*Detection, error) {
	res, replay, err := d.chain.DetectReader(r)
	if err != nil {
		return nil, err
	}

	det := &Detection{
		MediaType:   res.MediaType,
		SignatureID: res.SignatureID,
		DetectedAt:  now,
	}
	if depth >= d.config.maxDepth || !unwrap.Supported(res.MediaType) {
		return det, nil
	}

	rc, err := unwrap.Open(res.MediaType, replay)
	if err != nil {
		return det, nil
	}
	defer rc.Close()

	if inner, err := d.detect(rc, depth+1, now); err == nil {
		det.Inner = inner
	}
	return det, nil
}

// LoadSignaturesFromFile loads signatures from a YAML file or a directory of
// YAML files. Use this with WithSignatures to create a detector with custom
// signatures.
func LoadSignaturesFromFile(path string) ([]*Signature, error) {
	return signature.NewLoader().LoadSignaturePath(path)
}

// LoadBuiltinSignatures returns all builtin signatures.
func LoadBuiltinSignatures() ([]*Signature, error) {
	return signature.NewLoader().LoadBuiltinSignatures()
}
