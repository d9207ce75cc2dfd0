// Package ode integrates quantum equations of motion over a time grid: closed
// systems step a ket through exact unitary propagators, open systems integrate
// the Lindblad master equation with a fixed-step fourth-order Runge-Kutta
// scheme. Both integrators require a non-empty, strictly increasing grid.
package ode
