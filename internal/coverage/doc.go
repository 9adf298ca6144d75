// Package coverage reconciles a project's required staffing against the
// workers assigned to it.
//
// The four seniority tiers collapse into three effective levels
// (junior=0, medior=1, senior/specialista=2). Requirements are satisfied from
// the top level down; workers left over at a level carry into the levels
// below it. The package is pure: no I/O, no shared state.
package coverage
