package signature

import "embed"

// builtinSignaturesFS embeds the built-in signature descriptors.
//
//go:embed signatures/*.yml
var builtinSignaturesFS embed.FS
