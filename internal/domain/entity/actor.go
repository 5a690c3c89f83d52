package entity

import "strings"

// Roles reconocidos por el núcleo. El rol llega ya resuelto desde el token.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// Actor par (negocio, usuario) ya resuelto por la capa de autenticación.
// Se pasa explícitamente en cada llamada al núcleo; no hay contexto de tenant implícito.
type Actor struct {
	BusinessID string
	UserID     string
	Role       string
}

// Privileged indica si el actor puede usar operaciones de override.
func (a Actor) Privileged() bool {
	return strings.EqualFold(a.Role, RoleAdmin)
}
