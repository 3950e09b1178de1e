package render

import (
	"sort"
	"strings"

	"panelcam/pkg/cutout"
	"panelcam/pkg/errors"
)

// sortKeys are the cutout fields the tabular outputs can be sorted by.
// Fields a cutout does not have, such as the width of a round hole, sort
// as zero.
var sortKeys = map[string]func(c cutout.Cutout) interface{}{
	"ref":       func(c cutout.Cutout) interface{} { return c.Ref },
	"footprint": func(c cutout.Cutout) interface{} { return c.Footprint },
	"shape":     func(c cutout.Cutout) interface{} { return c.Shape.String() },
	"x":         func(c cutout.Cutout) interface{} { return c.Center.X },
	"y":         func(c cutout.Cutout) interface{} { return c.Center.Y },
	"diameter":  func(c cutout.Cutout) interface{} { return c.Diameter },
	"width":     func(c cutout.Cutout) interface{} { return c.Width },
	"height":    func(c cutout.Cutout) interface{} { return c.Height },
	"rotation":  func(c cutout.Cutout) interface{} { return c.Rotation },
}

// SortKeyNames lists the accepted sort keys.
func SortKeyNames() []string {
	names := make([]string, 0, len(sortKeys))
	for k := range sortKeys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ParseSort splits a comma separated list of sort keys, e.g. "x,y".
func ParseSort(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var keys []string
	for _, k := range strings.Split(s, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if _, ok := sortKeys[k]; !ok {
			return nil, errors.WithHintf(errors.Newf("unknown sort key %q", k),
				"use a comma separated list of %s", strings.Join(SortKeyNames(), ", "))
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// order returns the indices of the job's cutouts sorted by job.Sort. Ties,
// and every cutout when there are no keys, keep their cutout order.
func (j Job) order() []int {
	idx := make([]int, len(j.Cutouts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ca, cb := j.Cutouts[idx[a]], j.Cutouts[idx[b]]
		for _, k := range j.Sort {
			key, ok := sortKeys[k]
			if !ok {
				continue
			}
			switch va := key(ca).(type) {
			case string:
				if vb := key(cb).(string); va != vb {
					return va < vb
				}
			case float64:
				if vb := key(cb).(float64); va != vb {
					return va < vb
				}
			}
		}
		return false
	})
	return idx
}
