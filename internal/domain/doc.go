// Package domain models traffic incident reports posted by the EPTC
// (Empresa Pública de Transporte e Circulação) account for Porto Alegre.
//
// # Report Conventions
//
// Every post starts with a fixed-length source tag followed by a Portuguese
// free-text description and a trailing platform shortlink. Street addresses
// inside the text follow loose conventions:
//
//	"<street-type> <name>, <number>"  →  e.g. "Av. Protásio Alves, 1234"
//	Street-type abbreviations: av, rua, estr, trav, beco, r.
//	Direction phrases ("no sentido ...", "próximo ...") terminate the name.
//	"X x Y" marks an intersection, which has no single resolvable number.
//
// Reports about the Guaíba bridge, the Conceição tunnel, or a viaduct carry
// no number at all; those are mapped to fixed landmark phrases the geocoder
// knows.
//
// # Classification
//
// Two ordered keyword taxonomies classify a report by substring match, first
// matching group wins:
//
//   - the emoji table, rendered on the public map (collision, spill,
//     breakdown, fallen tree, roadblock, exposed wiring, bridge lift,
//     loose horse);
//   - the metric table, a finer split used for funnel metrics (run-overs and
//     motorcycle falls separated from generic collisions).
//
// Both fall back to the collision group when nothing matches. Table order is
// significant: a report mentioning both a collision and a spill classifies
// as a collision.
//
// # Deduplication
//
// Coordinates are kept as the decimal strings returned by the geocoder and
// compared exactly. Two reports resolving to the same pair describe the same
// incident, whatever their wording.
package domain
