package domain

// SeedData describes the roles and admin account created on an empty
// database at startup.
type SeedData struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
	Roles         []RoleDefinition
}

type RoleDefinition struct {
	Name        string
	Label       string
	Description string
	Permissions []string
}
