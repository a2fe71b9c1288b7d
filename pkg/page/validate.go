package page

import (
	"fmt"
	"strings"

	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
)

// ValidationError collects every problem found in a page.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0]
	}
	return fmt.Sprintf("%d problems:\n  - %s", len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

// Validate checks the structural invariants of a page:
//   - page, section and brick ids are well formed and unique
//   - brick types are well formed
//   - every brick rect is valid at both breakpoints, with min <= max bounds
//   - section heights are positive or full
//   - only containers have children, and children name their container
//     as ParentID while section-level bricks have none
//
// Overlapping bricks are not a validation error.
//
// The returned error has code INVALID_DOCUMENT and wraps a *ValidationError.
func (p *Page) Validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if err := errors.ValidateID(p.ID); err != nil {
		addf("page: %s", errors.UserMessage(err))
	}

	seen := make(map[string]string)
	claim := func(id, what string) {
		if prev, ok := seen[id]; ok {
			addf("%s %q: id already used by %s", what, id, prev)
			return
		}
		seen[id] = what
	}

	for _, s := range p.Sections {
		if err := errors.ValidateID(s.ID); err != nil {
			addf("section: %s", errors.UserMessage(err))
		} else {
			claim(s.ID, "section")
		}
		for _, bp := range grid.Breakpoints {
			if h := s.Position.At(bp).H; !h.Valid() {
				addf("section %q: %s height %s must be positive or full", s.ID, bp, h)
			}
		}
	}

	p.Walk(func(s *Section, parent, b *Brick) bool {
		if err := errors.ValidateID(b.ID); err != nil {
			addf("brick in section %q: %s", s.ID, errors.UserMessage(err))
			return true
		}
		claim(b.ID, "brick")
		for _, err := range brickProblems(b) {
			addf("%s", errors.UserMessage(err))
		}
		switch {
		case parent == nil && b.ParentID != "":
			addf("brick %q is at section level but names parent %q", b.ID, b.ParentID)
		case parent != nil && b.ParentID != parent.ID:
			addf("brick %q names parent %q but lives in %q", b.ID, b.ParentID, parent.ID)
		}
		return true
	})

	if len(problems) == 0 {
		return nil
	}
	return errors.Wrap(errors.ErrCodeInvalidDocument, &ValidationError{Problems: problems}, "page %q is invalid", p.ID)
}

// ValidateBrick checks b on its own, without its children or its place in
// a page: the id, and every per-brick rule Validate applies. It returns the
// first problem with its own code (INVALID_INPUT, INVALID_POSITION,
// OUT_OF_BOUNDS or INVALID_PARENT).
func ValidateBrick(b *Brick) error {
	if err := errors.ValidateID(b.ID); err != nil {
		return err
	}
	if errs := brickProblems(b); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// brickProblems returns every per-brick rule b breaks. The id is checked
// by the callers.
func brickProblems(b *Brick) []error {
	var errs []error
	if err := errors.ValidateBrickType(b.Type); err != nil {
		errs = append(errs, errors.New(errors.GetCode(err), "brick %q: %s", b.ID, errors.UserMessage(err)))
	}
	for _, bp := range grid.Breakpoints {
		pos := b.Position.At(bp)
		if err := pos.Validate(); err != nil {
			errs = append(errs, errors.New(errors.GetCode(err), "brick %q %s: %s", b.ID, bp, errors.UserMessage(err)))
		}
		if err := pos.ValidateBounds(); err != nil {
			errs = append(errs, errors.New(errors.GetCode(err), "brick %q %s: %s", b.ID, bp, errors.UserMessage(err)))
		}
	}
	if len(b.Children) > 0 && !b.IsContainer {
		errs = append(errs, errors.New(errors.ErrCodeInvalidParent, "brick %q has children but is not a container", b.ID))
	}
	if b.Datasource != nil {
		if err := errors.ValidateDatasourceRef(b.Datasource.Ref); err != nil {
			errs = append(errs, errors.New(errors.GetCode(err), "brick %q: %s", b.ID, errors.UserMessage(err)))
		}
		if !b.IsContainer {
			errs = append(errs, errors.New(errors.ErrCodeInvalidParent, "brick %q is bound to a datasource but is not a container", b.ID))
		}
	}
	return errs
}

// ValidateBounds reports OUT_OF_BOUNDS when a declared minimum exceeds the
// declared maximum on either axis.
func (p Position) ValidateBounds() error {
	if p.MinW < 0 || p.MaxW < 0 || p.MinH < 0 || p.MaxH < 0 {
		return errors.New(errors.ErrCodeOutOfBounds, "bounds must not be negative")
	}
	if p.MinW > 0 && p.MaxW > 0 && p.MinW > p.MaxW {
		return errors.New(errors.ErrCodeOutOfBounds, "minW %d > maxW %d", p.MinW, p.MaxW)
	}
	if p.MinH > 0 && p.MaxH > 0 && p.MinH > p.MaxH {
		return errors.New(errors.ErrCodeOutOfBounds, "minH %d > maxH %d", p.MinH, p.MaxH)
	}
	if p.ManualHeight < 0 {
		return errors.New(errors.ErrCodeInvalidPosition, "manual height must not be negative")
	}
	return nil
}
