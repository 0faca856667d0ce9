package enums

type Role string

const (
	RoleCurator   Role = "CURATOR"
	RoleRecipient Role = "RECIPIENT"
)

func (r Role) Privileged() bool {
	return r == RoleCurator
}
