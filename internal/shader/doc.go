// Package shader translates portable WGSL source into per-stage units in a
// backend's native shading dialect.
//
// Translation runs the naga front end (parse, lower, validate) once, then
// emits one Unit for every vertex and fragment entry point of the module.
// Each unit carries the entry point name, the translated source for the
// requested Target, and the vertex inputs reflected from the IR so that
// pipelines can derive their vertex layout instead of hardcoding it.
//
// Translation is all-or-nothing: a failure in any stage discards every unit.
package shader
