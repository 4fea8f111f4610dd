package session

// Descendants returns the ids of every record reachable from rootID through
// SourceID links, level by level. rootID itself is not included. Records are
// expected to come from a single partition.
//
// Expired records are walked like live ones so a stale intermediate link does
// not hide its live children.
func Descendants(records []Record, rootID string) []string {
	children := make(map[string][]string, len(records))
	for _, r := range records {
		if r.SourceID == "" || r.ID == r.SourceID {
			continue
		}
		children[r.SourceID] = append(children[r.SourceID], r.ID)
	}

	visited := map[string]struct{}{rootID: {}}
	frontier := []string{rootID}
	var out []string

	for len(frontier) > 0 {
		var next []string
		for _, id := range frontier {
			for _, child := range children[id] {
				if _, seen := visited[child]; seen {
					continue
				}
				visited[child] = struct{}{}
				out = append(out, child)
				next = append(next, child)
			}
		}
		frontier = next
	}
	return out
}
