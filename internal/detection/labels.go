package detection

// WildlifeLabels maps COCO class ids to the class names considered domain
// relevant: people plus the animal species a garden camera can plausibly
// capture. Static configuration, not persisted per asset.
var WildlifeLabels = map[int]string{
	0:  "person",
	14: "bird",
	15: "cat",
	16: "dog",
	17: "horse",
	18: "sheep",
	19: "cow",
	20: "elephant",
	21: "bear",
	22: "zebra",
	23: "giraffe",
}

var wildlifeNames = func() map[string]struct{} {
	names := make(map[string]struct{}, len(WildlifeLabels))
	for _, name := range WildlifeLabels {
		names[name] = struct{}{}
	}
	return names
}()

// IsTargetClass reports whether the class name is in the target allowlist.
func IsTargetClass(name string) bool {
	_, ok := wildlifeNames[name]
	return ok
}

// TargetClassNames returns the allowlisted class names. The slice is a copy.
func TargetClassNames() []string {
	names := make([]string, 0, len(wildlifeNames))
	for name := range wildlifeNames {
		names = append(names, name)
	}
	return names
}
