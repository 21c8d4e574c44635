package files

import (
	"context"
	"io"
)

// Store persiste adjuntos (carnets de vacunación escaneados, etc.)
// y devuelve una ruta opaca que se guarda en el registro.
type Store interface {
	Save(ctx context.Context, filename string, contentType string, r io.Reader) (path string, err error)
}
