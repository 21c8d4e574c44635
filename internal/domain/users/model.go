package users

import "time"

// User es el perfil mínimo que este backend necesita: resolución de
// contacto para recordatorios. Registro/login viven en el servicio de
// identidad, no acá.
type User struct {
	ID        string
	Username  string
	Email     string
	FirstName string

	CreatedAt time.Time
}

// DisplayName devuelve el nombre para el saludo del email.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}
