package domain

import "time"

// Role enumerates application roles.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleCoordinador       Role = "coordinador"
	RoleTechnician        Role = "technician"
	RoleJefeOperaciones   Role = "jefe_operaciones"
	RoleAdministrativo    Role = "administrativo"
	RoleGestorActivos     Role = "gestorActivos"
	RoleTecnicoInventario Role = "tecnicoInventario"
)

// IsValid reports whether r is a declared role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCoordinador, RoleTechnician, RoleJefeOperaciones,
		RoleAdministrativo, RoleGestorActivos, RoleTecnicoInventario:
		return true
	}
	return false
}

// User models an account in the support system. Departamento is nullable for
// roles that are not department-scoped.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Sede         string
	Departamento *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
