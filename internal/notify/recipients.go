package notify

// Target selects who receives spawn notifications by default.
type Target string

const (
	TargetUser  Target = "user"
	TargetGroup Target = "group"
	TargetBoth  Target = "both"
)

// Recipients resolves the default push targets. A personal 1:1 setup uses
// the user id; a guild setup pushes to the group.
type Recipients struct {
	Target  Target
	UserID  string
	GroupID string
}

func (r Recipients) Resolve() []string {
	var out []string
	if (r.Target == TargetUser || r.Target == TargetBoth) && r.UserID != "" {
		out = append(out, r.UserID)
	}
	if (r.Target == TargetGroup || r.Target == TargetBoth) && r.GroupID != "" {
		out = append(out, r.GroupID)
	}
	return out
}
