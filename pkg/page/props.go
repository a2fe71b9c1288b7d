package page

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/matzehuels/brickgrid/pkg/grid"
)

// EffectiveProps returns the props the brick renders with at bp. On mobile,
// MobileProps is applied to Props as a JSON merge patch; a null value in the
// patch removes the property. The brick itself is not modified.
func (b *Brick) EffectiveProps(bp grid.Breakpoint) (map[string]any, error) {
	if bp != grid.Mobile || len(b.MobileProps) == 0 {
		return cloneMap(b.Props), nil
	}

	base, err := json.Marshal(orEmpty(b.Props))
	if err != nil {
		return nil, fmt.Errorf("encode props of %s: %w", b.ID, err)
	}
	patch, err := json.Marshal(b.MobileProps)
	if err != nil {
		return nil, fmt.Errorf("encode mobile props of %s: %w", b.ID, err)
	}
	merged, err := jsonpatch.MergePatch(base, patch)
	if err != nil {
		return nil, fmt.Errorf("merge mobile props of %s: %w", b.ID, err)
	}

	var out map[string]any
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("decode merged props of %s: %w", b.ID, err)
	}
	return out, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
