package rules

import "github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"

// OpenPolicy captures the per-role exemptions applied when opening a
// bottle. The exclusivity gate (one open per bottle per user) has no
// exemption for any role.
type OpenPolicy struct {
	SkipDailyLimit      bool
	SkipAssignmentCheck bool
}

func OpenPolicyFor(role enums.Role) OpenPolicy {
	if role.Privileged() {
		return OpenPolicy{
			SkipDailyLimit:      true,
			SkipAssignmentCheck: true,
		}
	}
	return OpenPolicy{}
}
