// FILE: lixenwraith/tvconfig/validate.go
package tvconfig

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Probes bundles the live collaborators consulted by strict validation.
// Nil members are replaced with their defaults when the schema is built.
type Probes struct {
	EDCB         EDCBDialer
	HTTP         HTTPDoer
	Runner       CommandRunner
	Listeners    ListenerSource
	Self         func() ProcessIdentity
	EncoderPaths map[string]string
	Arch         string
}

// rule is a live-probe check bound to a single field path.
type rule struct {
	path string
	// requires lists sibling paths that must have passed for the rule to run
	requires []string
	check    func(ctx context.Context, s *Settings) *FieldError
}

// schema validates raw settings documents against the field constraints and live rules.
type schema struct {
	validate *validator.Validate
	probes   Probes
	log      *zap.Logger
}

func newSchema(probes Probes, log *zap.Logger) *schema {
	if log == nil {
		log = zap.NewNop()
	}
	return &schema{
		validate: newValidate("yaml"),
		probes:   probes,
		log:      log,
	}
}

// rules returns the live checks in evaluation order.
func (sc *schema) rules() []rule {
	return []rule{
		{
			path:     "general.edcb_url",
			requires: []string{"general.backend"},
			check: func(ctx context.Context, s *Settings) *FieldError {
				if s.General.Backend != BackendEDCB {
					return nil
				}
				return checkEDCB(ctx, s.General.EDCBURL, sc.probes.EDCB, sc.log)
			},
		},
		{
			path:     "general.mirakurun_url",
			requires: []string{"general.backend"},
			check: func(ctx context.Context, s *Settings) *FieldError {
				if s.General.Backend != BackendMirakurun {
					return nil
				}
				return checkMirakurun(ctx, s.General.MirakurunURL, sc.probes.HTTP, sc.log)
			},
		},
		{
			path: "general.encoder",
			check: func(ctx context.Context, s *Settings) *FieldError {
				return checkEncoder(ctx, s.General.Encoder, sc.probes, sc.log)
			},
		},
		{
			path: "server.port",
			check: func(ctx context.Context, s *Settings) *FieldError {
				return checkPort(ctx, s.Server.Port, sc.probes.Listeners, sc.probes.Self(), sc.log)
			},
		},
	}
}

// check constructs Settings from raw values, running every constraint and live rule.
// All failures are aggregated; a live rule is skipped when its field, or a field it
// depends on, has already failed a shape check.
func (sc *schema) check(ctx context.Context, raw map[string]any) (*Settings, error) {
	settings := &Settings{}
	var errs *multierror.Error
	failed := make(map[string]bool)

	record := func(fe *FieldError) {
		errs = appendFieldError(errs, fe)
		failed[fe.Path] = true
	}
	hasFailed := func(path string) bool {
		section, _, _ := strings.Cut(path, ".")
		return failed[path] || failed[section]
	}

	for _, fe := range decodeStrict(raw, settings) {
		record(fe)
	}

	if err := sc.validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, errors.Wrap(err, "constraint validation")
		}
		for _, ve := range verrs {
			path := constraintPath(ve)
			if hasFailed(path) {
				continue
			}
			record(genericError(path, "%s", describeConstraint(ve)))
		}
	}

	for _, r := range sc.rules() {
		if hasFailed(r.path) || anyFailed(hasFailed, r.requires) {
			continue
		}
		if fe := r.check(ctx, settings); fe != nil {
			record(fe)
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return settings, nil
}

func anyFailed(hasFailed func(string) bool, paths []string) bool {
	for _, p := range paths {
		if hasFailed(p) {
			return true
		}
	}
	return false
}
