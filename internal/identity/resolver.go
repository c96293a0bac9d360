package identity

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shinji-kodama/deliver/internal/model"
)

// DefaultPrefix is the identity prefix used when the project configuration
// does not override it.
const DefaultPrefix = "s"

// ArchiveExtension is appended to every derived archive file name.
const ArchiveExtension = ".tar.gz"

// Resolver normalizes raw identity strings with a fixed prefix.
type Resolver struct {
	prefix string
}

// NewResolver returns a Resolver for the given prefix. An empty prefix
// falls back to DefaultPrefix.
func NewResolver(prefix string) *Resolver {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Resolver{prefix: prefix}
}

// Normalize trims raw and prepends the prefix when it is missing.
// Normalizing an already-canonical string returns it unchanged.
// An empty input yields an empty Identity.
func (r *Resolver) Normalize(raw string) model.Identity {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return model.Identity{}
	}
	canonical := trimmed
	if !strings.HasPrefix(trimmed, r.prefix) {
		canonical = r.prefix + trimmed
	}
	return model.Identity{Raw: trimmed, Canonical: canonical}
}

// Resolve validates and normalizes the primary and optional secondary
// identity. It fails with an ExitValidation CLIError when the primary
// identity is blank. A blank secondary is dropped.
func (r *Resolver) Resolve(primary, secondary string) ([]model.Identity, error) {
	first := r.Normalize(primary)
	if first.Canonical == "" {
		return nil, model.NewCLIError(model.ExitValidation, "at least one student ID required")
	}

	if err := validate(first); err != nil {
		return nil, model.WrapCLIError(model.ExitValidation, "invalid student 1 ID", err)
	}

	ids := []model.Identity{first}
	if second := r.Normalize(secondary); second.Canonical != "" {
		if err := validate(second); err != nil {
			return nil, model.WrapCLIError(model.ExitValidation, "invalid student 2 ID", err)
		}
		ids = append(ids, second)
	}
	return ids, nil
}

// validate rejects characters that would make derived file names ambiguous
// ("-" is the identity separator) or escape the output directory.
func validate(id model.Identity) error {
	for _, r := range id.Canonical {
		if r == '-' || r == '/' || r == '\\' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%q contains forbidden character %q", id.Raw, r)
		}
	}
	return nil
}

// DeriveFilename builds the archive file name for part and identities.
// Identities are joined in order with "-".
func DeriveFilename(part model.Part, identities []model.Identity) (string, error) {
	if !part.IsValid() {
		return "", fmt.Errorf("derive filename: invalid part %q", part)
	}
	if len(identities) == 0 || identities[0].Canonical == "" {
		return "", fmt.Errorf("derive filename: primary identity is required")
	}
	if len(identities) > 2 {
		return "", fmt.Errorf("derive filename: at most two identities allowed, got %d", len(identities))
	}

	var b strings.Builder
	b.WriteString("assignment2")
	b.WriteString(part.Letter())
	for _, id := range identities {
		b.WriteString("-")
		b.WriteString(id.Canonical)
	}
	b.WriteString(ArchiveExtension)
	return b.String(), nil
}

// Join renders identities as a comma-separated list for user-facing text.
func Join(identities []model.Identity) string {
	names := make([]string, 0, len(identities))
	for _, id := range identities {
		names = append(names, id.Canonical)
	}
	return strings.Join(names, ", ")
}
