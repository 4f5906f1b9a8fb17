package pypi

import (
	"strings"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
	"github.com/pyscope/pyscope/pkg/match"
)

// DefaultPlatform is the ecosystem that statistics queries default to.
const DefaultPlatform = "pypi"

// Platforms lists the ecosystems the statistics host indexes. Inputs
// resolve against this list fuzzily and case-insensitively.
var Platforms = []string{
	"npm", "Maven", "PyPI", "NuGet", "Go", "Packagist", "Rubygems", "Cargo",
	"CocoaPods", "Bower", "Pub", "CPAN", "CRAN", "Clojars", "conda",
	"Hackage", "Hex", "Meteor", "Homebrew", "Puppet", "Carthage", "SwiftPM",
	"Julia", "Elm", "Dub", "Racket", "Nimble", "Haxelib", "PureScript",
	"Alcatraz", "Inqlude",
}

// ResolvePlatform maps an input onto a supported platform identifier in
// URL form (lowercase). Empty input selects [DefaultPlatform]. Unknown
// platforms fail with INVALID_PLATFORM and a closest-candidate suggestion.
func ResolvePlatform(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return DefaultPlatform, nil
	}
	if best, ok := match.Best(input, Platforms, match.ThresholdPackage); ok {
		return strings.ToLower(best.Value), nil
	}
	closest := match.Closest(input, Platforms)
	return "", pkgerrors.New(pkgerrors.ErrCodeInvalidPlatform,
		"unsupported platform %q (closest match: %s)", input, closest.Value)
}
