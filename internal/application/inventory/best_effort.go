package inventory

import "github.com/rs/zerolog"

// BestEffort descarta err de forma explícita: si no es nil lo registra como warning y devuelve true.
// Para operaciones secundarias cuyo fallo no debe abortar la operación principal.
//
//	if inventory.BestEffort(log, "import_row", err) {
//		continue
//	}
func BestEffort(log zerolog.Logger, op string, err error) bool {
	if err == nil {
		return false
	}
	log.Warn().Err(err).Str("op", op).Msg("operación best-effort fallida; se continúa")
	return true
}
