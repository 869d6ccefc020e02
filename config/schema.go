package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/tobimo/brackets/errors"
)

//go:embed schema.cue
var schemaSource string

// Issue is a single schema violation.
type Issue struct {
	// Path is the field path, e.g. ["minio", "bucket"].
	Path    []string
	Message string
}

func (i Issue) String() string {
	if len(i.Path) == 0 {
		return i.Message
	}
	return strings.Join(i.Path, ".") + ": " + i.Message
}

// CheckSchema validates raw YAML against the configuration schema. Unknown
// fields and values of the wrong type or outside the allowed set are
// rejected. Returns nil for empty input.
func CheckSchema(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	cueCtx := cuecontext.New()
	schema := cueCtx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return errors.Wrap(err, errors.CodeUnknown, "config schema is invalid")
	}

	file, err := cueyaml.Extract("config.yaml", data)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidParams, "failed to parse config")
	}
	value := cueCtx.BuildFile(file)
	if err := value.Err(); err != nil {
		return errors.Wrap(err, errors.CodeInvalidParams, "failed to parse config")
	}

	// All reports every violation instead of stopping at the first one.
	if err := schema.Unify(value).Validate(cue.Concrete(true), cue.All()); err != nil {
		issues := extractIssues(err)
		msgs := make([]string, 0, len(issues))
		for _, issue := range issues {
			msgs = append(msgs, issue.String())
		}
		return errors.WithContext(
			errors.Wrapf(err, errors.CodeInvalidParams, "config does not match schema: %s", strings.Join(msgs, "; ")),
			"issues", issues,
		)
	}
	return nil
}

func extractIssues(err error) []Issue {
	var issues []Issue
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		issues = append(issues, Issue{
			Path:    e.Path(),
			Message: fmt.Sprintf(format, args...),
		})
	}
	return issues
}
