// Package repository define las entidades administrativas y los contratos de
// persistencia, independientes del almacenamiento (memoria, PostgreSQL).
//
// Las implementaciones viven en internal/store/adapters/.
//
//	managers ──► domain/repository (interfaces) ──► store/adapters/{memory,pg}
//
// Convenciones:
//   - Context siempre es el primer parámetro.
//   - Las claves naturales (client_id, name, user_name) son únicas; un duplicado
//     retorna ErrConflict y una clave inexistente ErrNotFound.
//   - Las colecciones nunca se devuelven nil: vacío es []string{} / map{}.
//   - Las entidades no se contienen entre sí; se referencian por id o nombre.
package repository
