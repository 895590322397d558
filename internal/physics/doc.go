// Package physics implements the reduced-order (0D) hydrogen recycling
// model: a two-reservoir particle balance between a lumped plasma
// inventory Np and a lumped wall inventory Nw, driven by prescribed
// wall-temperature and fueling trajectories.
//
// [WallBalance] implements [dynamo.System]; [Scenario] supplies the
// forcing terms as pure functions of time. The wall retention and
// release closure is phenomenological: finite-capacity uptake plus an
// Arrhenius-type residence time. Intended for qualitative behavior and
// sensitivity studies, not validation against discharge data.
package physics
